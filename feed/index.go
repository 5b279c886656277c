// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package feed

import (
	"context"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/feedmigrate/feed/transport"
)

const (
	// searchServicePrefix matches the family of search service
	// resource tags a feed may declare.
	searchServicePrefix = "SearchQueryService"

	// registrationBaseType is the exact tag of the versioned
	// registration base resource.
	registrationBaseType = "RegistrationsBaseUrl/3.6.0"
)

// IndexClient resolves a feed's service index into typed endpoint
// locations. The index document is fetched once, on first use, with no
// retries: a feed whose index cannot be fetched is unusable and the
// failure propagates to the caller.
//
// An IndexClient is not safe for concurrent use.
type IndexClient struct {
	indexURL  string
	client    RESTClient
	resources []transport.Resource
	fetched   bool
}

// NewIndexClient creates an IndexClient for the feed whose service
// index lives at indexURL.
func NewIndexClient(indexURL string, client RESTClient) *IndexClient {
	return &IndexClient{
		indexURL: indexURL,
		client:   client,
	}
}

// Resources returns the typed resources the feed declares.
func (c *IndexClient) Resources(ctx context.Context) ([]transport.Resource, error) {
	if c.fetched {
		return c.resources, nil
	}
	var index transport.ServiceIndex
	if _, err := c.client.Get(ctx, c.indexURL, &index); err != nil {
		return nil, errors.Annotatef(err, "fetching service index %q", c.indexURL)
	}
	c.resources = index.Resources
	c.fetched = true
	return c.resources, nil
}

// SearchService returns the location of the first resource in the
// search service family.
func (c *IndexClient) SearchService(ctx context.Context) (string, error) {
	resources, err := c.Resources(ctx)
	if err != nil {
		return "", errors.Trace(err)
	}
	for _, resource := range resources {
		if strings.HasPrefix(resource.Type, searchServicePrefix) {
			return resource.ID, nil
		}
	}
	return "", errors.NotFoundf("%q resource in service index %q", searchServicePrefix, c.indexURL)
}

// RegistrationBase returns the location of the first resource whose
// tag exactly matches the versioned registration base marker.
func (c *IndexClient) RegistrationBase(ctx context.Context) (string, error) {
	resources, err := c.Resources(ctx)
	if err != nil {
		return "", errors.Trace(err)
	}
	for _, resource := range resources {
		if resource.Type == registrationBaseType {
			return resource.ID, nil
		}
	}
	return "", errors.NotFoundf("%q resource in service index %q", registrationBaseType, c.indexURL)
}
