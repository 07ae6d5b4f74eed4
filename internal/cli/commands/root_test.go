package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "datamap" {
		t.Errorf("expected Use to be 'datamap', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	// Check subcommands are registered
	expectedCommands := []string{
		"version",
		"normalize",
		"models",
		"get",
		"completion",
	}

	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}

	for _, flag := range []string{"config", "no-color"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag --%s", flag)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	// Set test version info
	Version = "1.0.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-01-01"
	GoVersion = "go1.23"

	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %s", cmd.Use)
	}

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.Run(cmd, []string{})

	for _, expected := range []string{"1.0.0-test", "abc123", "2025-01-01", "go1.23"} {
		if !strings.Contains(buf.String(), expected) {
			t.Errorf("expected version output to contain %q, got:\n%s", expected, buf.String())
		}
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, _, err := execute(t, seededLoader(t), "completion", shell)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(out, "datamap") {
				t.Errorf("expected completion script to mention datamap")
			}
		})
	}

	if _, _, err := execute(t, seededLoader(t), "completion", "tcsh"); err == nil {
		t.Error("expected error for an unsupported shell")
	}
}

func TestReportedError(t *testing.T) {
	base := errors.New("boom")
	err := reported(base)

	if !errors.Is(err, base) {
		t.Error("expected reported error to unwrap to its cause")
	}

	var done *reportedError
	if !errors.As(err, &done) {
		t.Error("expected errors.As to find reportedError")
	}

	if err.Error() != "boom" {
		t.Errorf("expected message 'boom', got %q", err.Error())
	}
}
