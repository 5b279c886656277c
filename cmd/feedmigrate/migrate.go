// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"context"

	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"

	"github.com/juju/feedmigrate/feed"
	"github.com/juju/feedmigrate/migrate"
)

const migrateDoc = `
feedmigrate copies the packages one feed advertises but another does
not. Both feeds must expose a service index declaring a search service
and a registration base; missing packages are downloaded from the
source and pushed to the destination with the local publishing tool.

The destination feed must already be registered with the publishing
tool, with credentials configured against it.

Per-package failures are reported in the final summary; they never
abort the migration.

Examples:
    feedmigrate --source https://src.example/v3/index.json \
        --dest https://dst.example/v3/index.json --api-key s3cret
`

type migrateCommand struct {
	cmd.CommandBase

	source string
	dest   string

	sourceUser     string
	sourcePassword string
	destUser       string
	destPassword   string
	apiKey         string

	publisherTool string
	stagingDir    string
	max           int
	verbose       bool
}

func newMigrateCommand() cmd.Command {
	return &migrateCommand{}
}

// Info implements cmd.Command.
func (c *migrateCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "feedmigrate",
		Purpose: "migrate packages between two package feeds",
		Doc:     migrateDoc,
	}
}

// SetFlags implements cmd.Command.
func (c *migrateCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.source, "source", "", "service index of the source feed")
	f.StringVar(&c.dest, "dest", "", "service index of the destination feed")
	f.StringVar(&c.sourceUser, "source-user", "", "user name for the source feed")
	f.StringVar(&c.sourcePassword, "source-password", "", "password for the source feed")
	f.StringVar(&c.destUser, "dest-user", "", "user name for the destination feed")
	f.StringVar(&c.destPassword, "dest-password", "", "password for the destination feed")
	f.StringVar(&c.apiKey, "api-key", "", "API key the publisher pushes with")
	f.StringVar(&c.publisherTool, "publisher", "nuget", "publisher executable to invoke")
	f.StringVar(&c.stagingDir, "staging", "", "directory to stage downloads under")
	f.IntVar(&c.max, "max", 0, "migrate at most this many entries (0 for no limit)")
	f.BoolVar(&c.verbose, "verbose", false, "enable debug logging")
}

// Init implements cmd.Command.
func (c *migrateCommand) Init(args []string) error {
	if c.source == "" {
		return errors.NotValidf("missing --source")
	}
	if c.dest == "" {
		return errors.NotValidf("missing --dest")
	}
	return cmd.CheckEmpty(args)
}

// Run implements cmd.Command.
func (c *migrateCommand) Run(ctx *cmd.Context) error {
	if c.verbose {
		loggo.GetLogger("feedmigrate").SetLogLevel(loggo.DEBUG)
	}
	callCtx := context.Background()

	transport := feed.DefaultHTTPTransport()
	sourceCreds := feed.Credentials{Username: c.sourceUser, Password: c.sourcePassword}
	destCreds := feed.Credentials{Username: c.destUser, Password: c.destPassword}

	// The destination listing must settle before reconciliation.
	destClient := feed.NewRESTClient(transport, destCreds)
	destSearch, err := feed.NewIndexClient(c.dest, destClient).SearchService(callCtx)
	if err != nil {
		return errors.Annotate(err, "resolving destination feed")
	}
	destRefs, err := feed.NewLister(destSearch, destClient, nil).List(callCtx, 0)
	if err != nil {
		return errors.Annotate(err, "listing destination feed")
	}
	ctx.Infof("destination advertises %d package versions", len(destRefs))

	sourceClient := feed.NewRESTClient(transport, sourceCreds)
	sourceIndex := feed.NewIndexClient(c.source, sourceClient)
	entries, err := feed.Resolve(callCtx, sourceIndex, sourceClient, nil, c.max)
	if err != nil {
		return errors.Annotate(err, "resolving source feed")
	}

	missing := migrate.Missing(entries, destRefs)
	ctx.Infof("%d of %d source entries missing from destination", len(missing), len(entries))

	driver, err := migrate.NewDriver(migrate.DriverConfig{
		Transport:   transport,
		Credentials: sourceCreds,
		StagingDir:  c.stagingDir,
		Publisher: &migrate.NugetPublisher{
			Tool:   c.publisherTool,
			Feed:   c.dest,
			APIKey: c.apiKey,
		},
	})
	if err != nil {
		return errors.Trace(err)
	}
	outcomes, err := driver.Run(callCtx, missing)
	if err != nil {
		return errors.Trace(err)
	}

	for _, failure := range migrate.Failures(outcomes) {
		ctx.Infof("failed: %s (fetch status %d, publisher status %d)",
			failure.ContentURL, failure.FetchStatus, failure.PublisherStatus)
	}
	summary := migrate.Summarize(outcomes)
	ctx.Infof("migrated %d packages, %d failures", summary.Succeeded, summary.Failed)
	return nil
}
