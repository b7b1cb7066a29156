package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Client abstracts the container daemon the publisher talks to.
type Client interface {
	// Exists reports whether the image is present in the daemon.
	Exists(ctx context.Context, image string) (bool, error)
	// Push uploads the image to its registry.
	Push(ctx context.Context, image string) error
}

// Daemon talks to the local Docker daemon via the docker CLI — no remote
// API calls, same approach as the build steps themselves.
type Daemon struct {
	Verbose bool
	Stderr  io.Writer // push progress when verbose; discarded otherwise
}

// Exists checks the daemon for the image via `docker image inspect`.
func (d *Daemon) Exists(ctx context.Context, image string) (bool, error) {
	cmd := exec.CommandContext(ctx, "docker", "image", "inspect", image)
	cmd.Stdout = io.Discard

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, isExit := err.(*exec.ExitError); isExit {
			// Non-zero exit means the image is unknown to the daemon.
			return false, nil
		}
		return false, fmt.Errorf("docker image inspect: %w", err)
	}
	return true, nil
}

// Push runs `docker push` for the image.
func (d *Daemon) Push(ctx context.Context, image string) error {
	cmd := exec.CommandContext(ctx, "docker", "push", image)

	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr
	if d.Verbose && d.Stderr != nil {
		cmd.Stdout = d.Stderr
		cmd.Stderr = io.MultiWriter(d.Stderr, &stderr)
	}

	if err := cmd.Run(); err != nil {
		msg := lastLine(stderr.String())
		if msg != "" {
			return fmt.Errorf("docker push %s: %w: %s", image, err, msg)
		}
		return fmt.Errorf("docker push %s: %w", image, err)
	}
	return nil
}

func lastLine(s string) string {
	var last string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			last = trimmed
		}
	}
	return last
}
