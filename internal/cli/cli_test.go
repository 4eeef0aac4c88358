package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/stash/internal/frame"
)

// runCommand executes the root command with args against a temp data
// dir and returns stdout.
func runCommand(t *testing.T, dataDir string, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	args = append(args, "--data-dir", dataDir,
		"--config", filepath.Join(dataDir, "no-config.yaml"))
	cmd.SetArgs(args)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}

	err := cmd.Execute()
	return out.String(), err
}

func TestPut_AppendsFrame(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, "from the clipboard", "put")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	id := strings.TrimSpace(out)
	if _, err := frame.ParseID(id); err != nil {
		t.Fatalf("put printed %q, not a frame id", id)
	}
}

func TestPutThenCat_RoundTrip(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCommand(t, dataDir, `{"command":"ls"}`, "put", "--topic", "command")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	putID := strings.TrimSpace(out)

	out, err = runCommand(t, dataDir, "", "cat")
	if err != nil {
		t.Fatalf("cat failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("cat printed %d lines, want 1: %q", len(lines), out)
	}

	var f frame.Frame
	if err := json.Unmarshal([]byte(lines[0]), &f); err != nil {
		t.Fatalf("cat output is not a frame: %v", err)
	}
	if f.ID != putID {
		t.Errorf("cat id %q, want %q", f.ID, putID)
	}
	if f.Topic != frame.TopicCommand {
		t.Errorf("topic = %q, want %q", f.Topic, frame.TopicCommand)
	}
	if f.Hash == "" {
		t.Error("cat frame has no content hash")
	}
}

func TestCat_CursorSkipsSeenFrames(t *testing.T) {
	dataDir := t.TempDir()

	first, err := runCommand(t, dataDir, "one", "put")
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	firstID := strings.TrimSpace(first)

	if _, err := runCommand(t, dataDir, "two", "put"); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	out, err := runCommand(t, dataDir, "", "cat", "--cursor", firstID)
	if err != nil {
		t.Fatalf("cat failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Fatalf("cat --cursor printed %d lines, want 1", len(lines))
	}
	if strings.Contains(out, firstID) {
		t.Error("cat --cursor reprinted the cursor frame")
	}
}

func TestCat_InvalidCursor(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCommand(t, dataDir, "", "cat", "--cursor", "bogus")
	if err == nil {
		t.Fatal("cat with invalid cursor succeeded")
	}
	if GetExitCode(err) != ExitCommandError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitCommandError)
	}
}
