// Package adb drives an Android device's freeform windows over adb.
//
// Windows are read from `am stack list`, moved with `am task resize` and
// launched with `am start --windowingMode 5`. Change events come from
// polling the stack list and diffing consecutive snapshots.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mj1618/droidtile/internal/platform"
)

// Runner executes adb with the given arguments and returns stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// ExecRunner runs the adb binary.
type ExecRunner struct {
	Path   string
	Serial string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	path := r.Path
	if path == "" {
		path = "adb"
	}
	full := args
	if r.Serial != "" {
		full = append([]string{"-s", r.Serial}, args...)
	}

	cmd := exec.CommandContext(ctx, path, full...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found in PATH", platform.ErrNotConnected, path)
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "no devices") || strings.Contains(msg, "not found") || strings.Contains(msg, "offline") {
			return "", fmt.Errorf("%w: %s", platform.ErrNotConnected, msg)
		}
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, msg)
	}
	return string(out), nil
}

func shell(ctx context.Context, r Runner, args ...string) (string, error) {
	return r.Run(ctx, append([]string{"shell"}, args...)...)
}
