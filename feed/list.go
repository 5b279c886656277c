// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/juju/feedmigrate/feed/transport"
)

const (
	// pageSize is the number of search results requested per page.
	pageSize = 100

	// semVerLevel is the semantic version protocol level sent with
	// every search query.
	semVerLevel = "2.0.0"

	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// Lister enumerates the package references a feed's search service
// advertises.
type Lister struct {
	searchURL string
	client    RESTClient
	clock     clock.Clock
}

// NewLister creates a Lister against the given search endpoint. A nil
// clock selects the wall clock.
func NewLister(searchURL string, client RESTClient, clk clock.Clock) *Lister {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Lister{
		searchURL: searchURL,
		client:    client,
		clock:     clk,
	}
}

// List returns every (identity, version) pair the search service
// reports, fanning each result out across its version list. Listing
// pages through the endpoint with increasing offsets until a page
// comes back empty, or until max entries have been accumulated when
// max is positive. Ordering is whatever the feed returns.
//
// A page request that keeps failing after bounded retries surfaces as
// an error; it is never conflated with the end of the listing.
func (l *Lister) List(ctx context.Context, max int) ([]transport.PackageRef, error) {
	var refs []transport.PackageRef
	for skip := 0; ; skip += pageSize {
		page, err := l.page(ctx, skip)
		if err != nil {
			return nil, errors.Annotatef(err, "listing packages from %q", l.searchURL)
		}
		if len(page.Data) == 0 {
			return refs, nil
		}
		for _, result := range page.Data {
			for _, version := range result.Versions {
				refs = append(refs, transport.PackageRef{
					ID:      result.ID,
					Version: version.Version,
				})
				if max > 0 && len(refs) >= max {
					return refs, nil
				}
			}
		}
	}
}

// page fetches one search page, retrying transient failures a bounded
// number of times. NotFound from the endpoint is fatal immediately;
// anything else gets retryAttempts tries.
func (l *Lister) page(ctx context.Context, skip int) (transport.SearchResponse, error) {
	pageURL := fmt.Sprintf("%s?q=&prerelease=true&semVerLevel=%s&skip=%d&take=%d",
		l.searchURL, semVerLevel, skip, pageSize)

	var response transport.SearchResponse
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			response = transport.SearchResponse{}
			_, err := l.client.Get(ctx, pageURL, &response)
			return errors.Trace(err)
		},
		IsFatalError: errors.IsNotFound,
		Attempts:     retryAttempts,
		Delay:        retryDelay,
		Clock:        l.clock,
		NotifyFunc: func(err error, attempt int) {
			logger.Warningf("search page at offset %d failed (attempt %d): %v", skip, attempt, err)
		},
		Stop: ctx.Done(),
	})
	if err != nil {
		if retry.IsAttemptsExceeded(err) {
			err = retry.LastError(err)
		}
		return transport.SearchResponse{}, errors.Trace(err)
	}
	return response, nil
}
