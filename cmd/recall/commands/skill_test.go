// ABOUTME: Tests for the install-skill command
// ABOUTME: Verifies skill installation, confirmation handling, and file content

package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewInstallSkillCmd(t *testing.T) {
	cmd := NewInstallSkillCmd()

	if cmd.Use != "install-skill" {
		t.Errorf("Use = %q, want %q", cmd.Use, "install-skill")
	}

	yesFlag := cmd.Flags().Lookup("yes")
	if yesFlag == nil {
		t.Fatal("--yes flag should exist")
	}
	if yesFlag.Shorthand != "y" {
		t.Errorf("--yes shorthand = %q, want %q", yesFlag.Shorthand, "y")
	}
}

func TestInstallSkill_SuccessfulInstallation(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cmd := NewInstallSkillCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--yes"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command execution failed: %v", err)
	}

	skillPath := filepath.Join(tmpHome, ".claude", "skills", "recall", "SKILL.md")
	content, err := os.ReadFile(skillPath)
	if err != nil {
		t.Fatalf("SKILL.md was not created at %s: %v", skillPath, err)
	}
	if !strings.Contains(string(content), "recall search") {
		t.Error("SKILL.md should describe recall search")
	}

	if !strings.Contains(output.String(), "Installed recall skill successfully") {
		t.Errorf("Output should contain success message, got: %s", output.String())
	}
}

func TestInstallSkill_Cancelled(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cmd := NewInstallSkillCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Command execution failed: %v", err)
	}

	if !strings.Contains(output.String(), "Installation cancelled") {
		t.Errorf("Output should say cancelled, got: %s", output.String())
	}
	skillPath := filepath.Join(tmpHome, ".claude", "skills", "recall", "SKILL.md")
	if _, err := os.Stat(skillPath); !os.IsNotExist(err) {
		t.Error("SKILL.md should not exist after cancelling")
	}
}
