// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate_test

import (
	"context"
	"os"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/feedmigrate/migrate"
)

// hostPath captures PATH before the isolation suite scrubs the
// environment, so the test tools (echo, false) stay resolvable.
var hostPath = os.Getenv("PATH")

type PublishSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&PublishSuite{})

func (s *PublishSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.PatchEnvironment("PATH", hostPath)
}

func (PublishSuite) TestPublishCapturesOutput(c *gc.C) {
	publisher := &migrate.NugetPublisher{
		Tool:   "echo",
		Feed:   "https://dst.example/v3/index.json",
		APIKey: "secret",
	}

	status, output, err := publisher.Publish(context.Background(), "/tmp/staged.nupkg")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(status, gc.Equals, 0)
	c.Assert(output, gc.Equals,
		"push /tmp/staged.nupkg -Source https://dst.example/v3/index.json -NonInteractive -ApiKey secret\n")
}

func (PublishSuite) TestPublishOmitsEmptyAPIKey(c *gc.C) {
	publisher := &migrate.NugetPublisher{
		Tool: "echo",
		Feed: "https://dst.example/v3/index.json",
	}

	_, output, err := publisher.Publish(context.Background(), "/tmp/staged.nupkg")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(output, gc.Equals,
		"push /tmp/staged.nupkg -Source https://dst.example/v3/index.json -NonInteractive\n")
}

func (PublishSuite) TestPublishReportsExitStatus(c *gc.C) {
	publisher := &migrate.NugetPublisher{Tool: "false", Feed: "ignored"}

	status, _, err := publisher.Publish(context.Background(), "/tmp/staged.nupkg")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(status, gc.Equals, 1)
}

func (PublishSuite) TestPublishMissingTool(c *gc.C) {
	publisher := &migrate.NugetPublisher{Tool: "/no/such/tool", Feed: "ignored"}

	status, _, err := publisher.Publish(context.Background(), "/tmp/staged.nupkg")
	c.Assert(err, gc.ErrorMatches, `running "/no/such/tool": .*`)
	c.Assert(status, gc.Equals, migrate.StatusNotAttempted)
}
