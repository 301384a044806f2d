// ABOUTME: Tests for Turn roles and append outcomes
// ABOUTME: Verifies role parsing and outcome reporting
package models

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"assistant", RoleAssistant, false},
		{"  USER ", RoleUser, false},
		{"Assistant", RoleAssistant, false},
		{"system", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRole(%q) expected error", tt.input)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("ParseRole(%q) error = %v, want ErrValidation", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRole(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleUser.Valid() || !RoleAssistant.Valid() {
		t.Error("known roles should be valid")
	}
	if Role("tool").Valid() {
		t.Error("Role(tool) should not be valid")
	}
}

func TestAppendOutcome(t *testing.T) {
	if Created.String() != "created" {
		t.Errorf("Created.String() = %q", Created.String())
	}
	if Appended.String() != "appended" {
		t.Errorf("Appended.String() = %q", Appended.String())
	}
	if AppendOutcome(0).String() != "unknown" {
		t.Errorf("zero outcome String() = %q", AppendOutcome(0).String())
	}

	r := AppendResult{Outcome: Created}
	if !r.Created() {
		t.Error("AppendResult{Created}.Created() = false")
	}
	r.Outcome = Appended
	if r.Created() {
		t.Error("AppendResult{Appended}.Created() = true")
	}
}

func TestNewDocumentID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewDocumentID()
		if id == "" {
			t.Fatal("NewDocumentID() returned empty id")
		}
		if seen[id] {
			t.Fatalf("NewDocumentID() returned duplicate %s", id)
		}
		seen[id] = true
	}
}
