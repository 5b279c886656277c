// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate

import (
	"context"
	"os/exec"

	"github.com/juju/errors"
)

const (
	// StatusNotAttempted is the publisher status recorded when the
	// publisher was never invoked for an item.
	StatusNotAttempted = -1

	// StatusNoResponse is the fetch status recorded when the content
	// request never completed.
	StatusNoResponse = 0
)

// Publisher pushes one staged artifact to a destination feed.
type Publisher interface {
	// Publish uploads the artifact at path, returning the tool's exit
	// status and its captured output. A non-nil error means the tool
	// could not be run at all.
	Publish(ctx context.Context, path string) (int, string, error)
}

// NugetPublisher invokes the external nuget executable. The
// destination feed must already be registered with the tool, with
// credentials configured against it.
type NugetPublisher struct {
	// Tool is the executable to run, "nuget" when empty.
	Tool string
	// Feed is the destination feed pushed to.
	Feed string
	// APIKey authenticates the push with the destination.
	APIKey string
}

// Publish implements Publisher. The tool's output is captured
// verbatim and never inspected for semantics.
func (p *NugetPublisher) Publish(ctx context.Context, path string) (int, string, error) {
	tool := p.Tool
	if tool == "" {
		tool = "nuget"
	}
	args := []string{"push", path, "-Source", p.Feed, "-NonInteractive"}
	if p.APIKey != "" {
		args = append(args, "-ApiKey", p.APIKey)
	}

	command := exec.CommandContext(ctx, tool, args...)
	output, err := command.CombinedOutput()
	if err == nil {
		return 0, string(output), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), string(output), nil
	}
	return StatusNotAttempted, string(output), errors.Annotatef(err, "running %q", tool)
}
