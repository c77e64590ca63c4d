package status

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var DefaultPBMCommand = []string{"pbm", "status", "-o", "json"}

// BackupStatusSource yields the status payload of the backup tool.
type BackupStatusSource interface {
	BackupStatus(ctx context.Context) (string, error)
}

// PBMCommand runs the percona backup manager CLI to get its status.
type PBMCommand struct {
	Command []string // DefaultPBMCommand if empty
	// added to the environment of the current process, e.g. PBM_MONGODB_URI=...
	Env []string
}

func (p *PBMCommand) BackupStatus(ctx context.Context) (string, error) {

	command := p.Command
	if len(command) == 0 {
		command = DefaultPBMCommand
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Env = append(os.Environ(), p.Env...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("`%s` failed with %s: %s", strings.Join(command, " "), exitErr, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("`%s` failed: %w", strings.Join(command, " "), err)
	}
	return string(out), nil
}
