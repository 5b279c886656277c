// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transport

// SearchResponse is one page of results from a feed's search service.
type SearchResponse struct {
	TotalHits int            `json:"totalHits"`
	Data      []SearchResult `json:"data"`
}

// SearchResult describes one package identity and its version history
// as reported by the search service.
type SearchResult struct {
	ID       string          `json:"id"`
	Version  string          `json:"version"`
	Versions []SearchVersion `json:"versions"`
}

// SearchVersion is a single version descriptor within a search result.
type SearchVersion struct {
	Version   string `json:"version"`
	Downloads int    `json:"downloads"`
}
