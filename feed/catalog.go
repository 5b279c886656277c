// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package feed

import (
	"context"
	"strings"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/juju/feedmigrate/feed/transport"
)

// Walker resolves registration resources into flat catalog entries.
//
// The visit set is created with the walker and lives for exactly one
// resolution run: share one walker across the identities of a run, and
// discard it when the run ends. A walker is not safe for concurrent
// use.
type Walker struct {
	registrationBase string
	client           RESTClient
	visited          set.Strings
}

// NewWalker returns a walker rooted at the given registration base.
func NewWalker(registrationBase string, client RESTClient) *Walker {
	return &Walker{
		registrationBase: registrationBase,
		client:           client,
		visited:          set.NewStrings(),
	}
}

// Walk returns every catalog entry reachable from the registration
// root of one package identity, in depth first document order.
//
// Each distinct resource location is fetched at most once per walker,
// however many parent paths lead to it; a repeat reference is skipped
// with a debug log, not an error. Traversal is an explicit worklist,
// and the visited check happens before any fetch, so a registration
// graph containing a diamond or even a location cycle still
// terminates.
func (w *Walker) Walk(ctx context.Context, id string) ([]transport.CatalogEntry, error) {
	indexURL := w.registrationBase + strings.ToLower(id) + "/index.json"
	if w.visited.Contains(indexURL) {
		logger.Debugf("skipping already visited registration index %q", indexURL)
		return nil, nil
	}
	w.visited.Add(indexURL)

	root, err := w.fetchPage(ctx, indexURL)
	if err != nil {
		return nil, errors.Annotatef(err, "fetching registration index for %q", id)
	}

	var entries []transport.CatalogEntry
	var work nodeStack
	work.push(root.Items)
	for !work.empty() {
		node := work.pop()
		switch node.Kind {
		case transport.Leaf:
			entries = append(entries, node.Entry)
		case transport.OpenPage:
			work.push(node.Items)
		case transport.ClosedPage:
			if w.visited.Contains(node.Location) {
				logger.Debugf("skipping already visited catalog page %q", node.Location)
				continue
			}
			w.visited.Add(node.Location)
			page, err := w.fetchPage(ctx, node.Location)
			if err != nil {
				return nil, errors.Annotatef(err, "fetching catalog page %q", node.Location)
			}
			work.push(page.Items)
		}
	}
	return entries, nil
}

func (w *Walker) fetchPage(ctx context.Context, pageURL string) (transport.RegistrationPage, error) {
	var page transport.RegistrationPage
	if _, err := w.client.Get(ctx, pageURL, &page); err != nil {
		return transport.RegistrationPage{}, errors.Trace(err)
	}
	return page, nil
}

// nodeStack is a worklist of catalog nodes. Children are pushed in
// reverse so popping preserves document order.
type nodeStack struct {
	nodes []transport.CatalogNode
}

func (s *nodeStack) push(nodes []transport.CatalogNode) {
	for i := len(nodes) - 1; i >= 0; i-- {
		s.nodes = append(s.nodes, nodes[i])
	}
}

func (s *nodeStack) pop() transport.CatalogNode {
	node := s.nodes[len(s.nodes)-1]
	s.nodes = s.nodes[:len(s.nodes)-1]
	return node
}

func (s *nodeStack) empty() bool {
	return len(s.nodes) == 0
}

// Resolve flattens a source feed into its catalog: it resolves the
// feed's endpoints, lists every package reference, then walks the
// registration tree of each distinct identity with one shared walker.
// When max is positive, resolution stops once max entries have been
// collected.
func Resolve(ctx context.Context, index *IndexClient, client RESTClient, clk clock.Clock, max int) ([]transport.CatalogEntry, error) {
	searchURL, err := index.SearchService(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	registrationBase, err := index.RegistrationBase(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}

	refs, err := NewLister(searchURL, client, clk).List(ctx, 0)
	if err != nil {
		return nil, errors.Trace(err)
	}

	seen := set.NewStrings()
	var ids []string
	for _, ref := range refs {
		if seen.Contains(ref.ID) {
			continue
		}
		seen.Add(ref.ID)
		ids = append(ids, ref.ID)
	}

	walker := NewWalker(registrationBase, client)
	var entries []transport.CatalogEntry
	for _, id := range ids {
		found, err := walker.Walk(ctx, id)
		if err != nil {
			return nil, errors.Trace(err)
		}
		entries = append(entries, found...)
		if max > 0 && len(entries) >= max {
			return entries[:max], nil
		}
	}
	logger.Infof("resolved %d catalog entries across %d packages", len(entries), len(ids))
	return entries, nil
}
