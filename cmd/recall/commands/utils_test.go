// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate, formatTime, render, and validation helpers

package commands

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"text/tabwriter"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"very short maxLen", "hello", 2, "he"},
		{"maxLen equals 3", "hello", 3, "hel"},
		{"empty string", "", 10, ""},
		{"whitespace collapsed", "a\n\n  b\tc", 10, "a b c"},
		{"unicode truncated by rune", "你好世界你好世界", 5, "你好..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		input    time.Time
		contains string
	}{
		{"minutes ago", now.Add(-5 * time.Minute), "minutes ago"},
		{"hours ago", now.Add(-3 * time.Hour), "hours ago"},
		{"days ago", now.Add(-2 * 24 * time.Hour), "days ago"},
		{"weeks ago shows date", now.Add(-14 * 24 * time.Hour), now.Add(-14 * 24 * time.Hour).Format("2006-01-02")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatTime(tt.input)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("formatTime() = %q, want to contain %q", got, tt.contains)
			}
		})
	}
}

func TestValidatePositiveInt(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		fieldName string
		wantErr   bool
	}{
		{"positive value", 5, "count", false},
		{"zero value", 0, "limit", true},
		{"negative value", -1, "offset", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePositiveInt(tt.n, tt.fieldName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePositiveInt(%d, %q) error = %v, wantErr %v", tt.n, tt.fieldName, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.fieldName) {
				t.Errorf("Error message should contain field name %q: %v", tt.fieldName, err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	original := outputFormat
	defer func() { outputFormat = original }()

	v := []map[string]int{{"n": 1}}
	table := func(w *tabwriter.Writer) { fmt.Fprintf(w, "N\n1\n") }

	tests := []struct {
		format string
		want   string
	}{
		{"auto", "N\n1\n"},
		{"table", "N\n1\n"},
		{"json", "\"n\": 1"},
		{"yaml", "- n: 1"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			outputFormat = tt.format
			var buf bytes.Buffer
			if err := render(&buf, v, table); err != nil {
				t.Fatalf("render() error = %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("render(%s) = %q, want to contain %q", tt.format, buf.String(), tt.want)
			}
		})
	}
}

func TestInfof(t *testing.T) {
	origFormat, origQuiet := outputFormat, quiet
	defer func() { outputFormat, quiet = origFormat, origQuiet }()

	var buf bytes.Buffer
	outputFormat, quiet = "auto", false
	infof(&buf, "hello %s", "there")
	if buf.String() != "hello there" {
		t.Errorf("infof = %q, want %q", buf.String(), "hello there")
	}

	for _, tc := range []struct {
		format string
		quiet  bool
	}{{"json", false}, {"yaml", false}, {"auto", true}} {
		buf.Reset()
		outputFormat, quiet = tc.format, tc.quiet
		infof(&buf, "hello")
		if buf.Len() != 0 {
			t.Errorf("infof with format=%s quiet=%v wrote %q", tc.format, tc.quiet, buf.String())
		}
	}
}
