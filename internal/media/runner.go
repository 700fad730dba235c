// Package media downloads music with yt-dlp and files it into the
// share and the media server's library.
package media

import (
	"context"
	"os/exec"
	"strings"

	"homelink/internal/errors"
)

// Runner executes an external tool. Tests substitute a fake so no
// binaries are needed.
type Runner interface {
	// Run executes bin with args and returns its combined trimmed
	// stdout. A missing binary maps to ErrToolNotFound, a non-zero
	// exit to ErrToolFailed.
	Run(ctx context.Context, bin string, args ...string) (string, error)
}

// ExecRunner is the production Runner backed by os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, bin string, args ...string) (string, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return "", errors.Wrapf(errors.ErrToolNotFound, "%s", bin)
	}
	out, err := exec.CommandContext(ctx, bin, args...).Output()
	if err != nil {
		return "", errors.Wrapf(errors.ErrToolFailed, "%s: %v", bin, err)
	}
	return strings.TrimSpace(string(out)), nil
}
