// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/feedmigrate/feed"
	"github.com/juju/feedmigrate/feed/transport"
)

var logger = loggo.GetLogger("feedmigrate.migrate")

// Outcome records the result of migrating one catalog entry.
type Outcome struct {
	// ContentURL is the location the artifact was fetched from.
	ContentURL string
	// FetchStatus is the HTTP status of the content request, or
	// StatusNoResponse when the request never completed.
	FetchStatus int
	// PublisherStatus is the publisher's exit status, or
	// StatusNotAttempted when the publisher was never run.
	PublisherStatus int
	// Output is the publisher's captured stdout and stderr.
	Output string
}

// Succeeded reports whether the item was fetched and published.
func (o Outcome) Succeeded() bool {
	return o.FetchStatus == http.StatusOK && o.PublisherStatus == 0
}

// DriverConfig holds the collaborators a Driver needs.
type DriverConfig struct {
	// Transport fetches artifact content from the source feed.
	Transport feed.Transport

	// Credentials authenticate content fetches against the source.
	Credentials feed.Credentials

	// Publisher pushes staged artifacts to the destination.
	Publisher Publisher

	// StagingDir optionally names the directory the per-run staging
	// area is created under. Empty means the system temp directory.
	StagingDir string
}

// Validate implements the config validation contract.
func (config DriverConfig) Validate() error {
	if config.Transport == nil {
		return errors.NotValidf("nil Transport")
	}
	if config.Publisher == nil {
		return errors.NotValidf("nil Publisher")
	}
	return nil
}

// Driver migrates missing catalog entries, strictly one at a time.
type Driver struct {
	config DriverConfig
}

// NewDriver creates a Driver from config.
func NewDriver(config DriverConfig) (*Driver, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Driver{config: config}, nil
}

// Run processes every entry in order and returns one outcome per
// entry. Item failures are recorded in their outcome and never abort
// the run. The only fatal error is an unusable staging location,
// which is detected before any network activity.
//
// One staging file is reused across all items, which is safe only
// while processing stays sequential; concurrent workers would each
// need their own staging path.
func (d *Driver) Run(ctx context.Context, entries []transport.CatalogEntry) ([]Outcome, error) {
	staging, err := os.MkdirTemp(d.config.StagingDir, "feedmigrate-")
	if err != nil {
		return nil, errors.Annotate(err, "creating staging directory")
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warningf("cannot remove staging directory %q: %v", staging, err)
		}
	}()
	stagingFile := filepath.Join(staging, "staged.nupkg")

	outcomes := make([]Outcome, 0, len(entries))
	for _, entry := range entries {
		outcomes = append(outcomes, d.migrateOne(ctx, entry, stagingFile))
	}
	return outcomes, nil
}

func (d *Driver) migrateOne(ctx context.Context, entry transport.CatalogEntry, stagingFile string) Outcome {
	outcome := Outcome{
		ContentURL:      entry.ContentURL,
		FetchStatus:     StatusNoResponse,
		PublisherStatus: StatusNotAttempted,
	}

	logger.Infof("migrating %s", entry.PackageRef)

	status, content, err := d.fetch(ctx, entry.ContentURL)
	outcome.FetchStatus = status
	if err != nil {
		logger.Warningf("cannot fetch %q: %v", entry.ContentURL, err)
		return outcome
	}

	if err := os.WriteFile(stagingFile, content, 0644); err != nil {
		logger.Warningf("cannot stage %s: %v", entry.PackageRef, err)
		return outcome
	}

	publisherStatus, output, err := d.config.Publisher.Publish(ctx, stagingFile)
	outcome.Output = output
	if err != nil {
		logger.Warningf("publisher did not run for %s: %v", entry.PackageRef, err)
		return outcome
	}
	outcome.PublisherStatus = publisherStatus
	if publisherStatus != 0 {
		logger.Warningf("publisher exited %d for %s", publisherStatus, entry.PackageRef)
	}
	return outcome
}

// fetch downloads the artifact bytes, reporting the HTTP status it
// observed. StatusNoResponse means the request never completed.
func (d *Driver) fetch(ctx context.Context, contentURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", contentURL, nil)
	if err != nil {
		return StatusNoResponse, nil, errors.Trace(err)
	}
	req.Header = d.config.Credentials.Header()

	resp, err := d.config.Transport.Do(req)
	if err != nil {
		return StatusNoResponse, nil, errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil, errors.Errorf("unexpected status %q fetching %q", resp.Status, contentURL)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return StatusNoResponse, nil, errors.Trace(err)
	}
	return resp.StatusCode, content, nil
}
