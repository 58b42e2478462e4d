package export

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/snapnote/snapnote/internal/apperr"
)

// Sharer hands an exported file to the OS share mechanism. Cancellation by
// the user is reported as apperr.ErrShareCanceled, which callers treat as
// a silent non-error.
type Sharer interface {
	Share(ctx context.Context, path, mimeType string) error
}

// CommandSharer invokes a system opener command (xdg-open on Linux) with
// the file path. The mime type is advisory; the opener resolves the
// handler itself.
type CommandSharer struct {
	Command string
}

// NewCommandSharer creates a sharer for the given opener command.
func NewCommandSharer(command string) *CommandSharer {
	if command == "" {
		command = "xdg-open"
	}
	return &CommandSharer{Command: command}
}

// Share opens the file with the configured command.
func (s *CommandSharer) Share(ctx context.Context, path, _ string) error {
	cmd := exec.CommandContext(ctx, s.Command, path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if isCanceled(string(out)) {
			return apperr.ErrShareCanceled
		}
		return fmt.Errorf("export: share %s: %w", filepath.Base(path), err)
	}
	return nil
}

// isCanceled detects a user-dismissed share dialog from the opener's
// output. Distinguished by message content; there is no dedicated exit
// code for it.
func isCanceled(output string) bool {
	return strings.Contains(strings.ToLower(output), "cancel")
}
