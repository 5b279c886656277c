// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate

import (
	"github.com/juju/collections/set"

	"github.com/juju/feedmigrate/feed/transport"
)

// Missing returns the source entries whose (identity, version) pair is
// absent from the destination listing, preserving source order.
//
// The difference is keyed on the compound pair, not the identity
// alone: a destination holding an older version of a package still
// receives the newer source versions. Identities and versions compare
// by exact, case sensitive string equality.
func Missing(source []transport.CatalogEntry, destination []transport.PackageRef) []transport.CatalogEntry {
	held := make(map[string]set.Strings)
	for _, ref := range destination {
		versions, ok := held[ref.ID]
		if !ok {
			versions = set.NewStrings()
			held[ref.ID] = versions
		}
		versions.Add(ref.Version)
	}

	var missing []transport.CatalogEntry
	for _, entry := range source {
		if versions, ok := held[entry.ID]; ok && versions.Contains(entry.Version) {
			continue
		}
		missing = append(missing, entry)
	}
	return missing
}
