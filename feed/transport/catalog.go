// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transport

import (
	"encoding/json"

	"github.com/juju/errors"
)

// Catalog node type tags as they appear on the wire.
const (
	CatalogPageType = "catalog:CatalogPage"
	PackageType     = "Package"
)

// NodeKind discriminates the parsed catalog node variants.
type NodeKind int

const (
	// OpenPage is a catalog page whose items are embedded inline.
	OpenPage NodeKind = iota
	// ClosedPage is a catalog page carrying only a location; its items
	// must be fetched from that location.
	ClosedPage
	// Leaf is a terminal package entry.
	Leaf
)

// PackageRef identifies one version of one package. Both fields are
// opaque, case sensitive strings; versions compare by exact string
// equality, with no semantic version coercion.
type PackageRef struct {
	ID      string
	Version string
}

// String implements fmt.Stringer.
func (r PackageRef) String() string {
	return r.ID + "@" + r.Version
}

// CatalogEntry names one package version and the location its content
// can be downloaded from.
type CatalogEntry struct {
	PackageRef
	ContentURL string
}

// CatalogNode is one node of a registration document, parsed into an
// explicit variant at the document boundary. The field groups below
// are populated according to Kind.
type CatalogNode struct {
	Kind NodeKind

	// Location is the fetchable address of a ClosedPage.
	Location string

	// Items holds the children of an OpenPage.
	Items []CatalogNode

	// Entry holds the package data of a Leaf.
	Entry CatalogEntry
}

// RegistrationPage is a registration index document, or a fetched
// closed catalog page: an ordered list of catalog nodes.
type RegistrationPage struct {
	Items []CatalogNode
}

// Wire shapes. The discrimination on "@type" happens here, once, so
// nothing downstream dispatches on raw tag strings.

type wireRegistrationPage struct {
	Items []json.RawMessage `json:"items"`
}

type wireCatalogNode struct {
	Type           string            `json:"@type"`
	ID             string            `json:"@id"`
	Items          []json.RawMessage `json:"items"`
	CatalogEntry   *wireCatalogEntry `json:"catalogEntry"`
	PackageContent string            `json:"packageContent"`
}

type wireCatalogEntry struct {
	ID             string `json:"id"`
	Version        string `json:"version"`
	PackageContent string `json:"packageContent"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *RegistrationPage) UnmarshalJSON(data []byte) error {
	var raw wireRegistrationPage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Trace(err)
	}
	items, err := parseNodes(raw.Items)
	if err != nil {
		return errors.Trace(err)
	}
	p.Items = items
	return nil
}

func parseNodes(raw []json.RawMessage) ([]CatalogNode, error) {
	nodes := make([]CatalogNode, 0, len(raw))
	for _, data := range raw {
		node, err := parseNode(data)
		if err != nil {
			return nil, errors.Trace(err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func parseNode(data json.RawMessage) (CatalogNode, error) {
	var raw wireCatalogNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return CatalogNode{}, errors.Trace(err)
	}
	switch raw.Type {
	case CatalogPageType:
		// A page without an item list is closed; it only carries the
		// location that must be fetched to obtain its items.
		if raw.Items == nil {
			if raw.ID == "" {
				return CatalogNode{}, errors.NotValidf("catalog page with neither items nor location")
			}
			return CatalogNode{Kind: ClosedPage, Location: raw.ID}, nil
		}
		items, err := parseNodes(raw.Items)
		if err != nil {
			return CatalogNode{}, errors.Trace(err)
		}
		return CatalogNode{Kind: OpenPage, Items: items}, nil
	case PackageType:
		if raw.CatalogEntry == nil {
			return CatalogNode{}, errors.NotValidf("package node without catalog entry")
		}
		content := raw.CatalogEntry.PackageContent
		if content == "" {
			content = raw.PackageContent
		}
		return CatalogNode{
			Kind: Leaf,
			Entry: CatalogEntry{
				PackageRef: PackageRef{
					ID:      raw.CatalogEntry.ID,
					Version: raw.CatalogEntry.Version,
				},
				ContentURL: content,
			},
		}, nil
	default:
		return CatalogNode{}, errors.NotValidf("catalog node type %q", raw.Type)
	}
}
