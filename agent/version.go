package agent

import (
	"context"
	"fmt"
	"github.com/gatici/mongodb-operator/topology"
	"os/exec"
)

// CheckMongodVersion runs `<command> --version` and checks the version against
// topology.MongodMinRequiredVersion.
func CheckMongodVersion(ctx context.Context, command string) (bool, error) {
	out, err := exec.CommandContext(ctx, command, "--version").Output()
	if err != nil {
		return false, fmt.Errorf("`%s --version` failed with: %w", command, err)
	}
	return topology.CheckMongodVersion(string(out))
}
