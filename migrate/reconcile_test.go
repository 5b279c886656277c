// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package migrate_test

import (
	"github.com/juju/testing"
	gc "gopkg.in/check.v1"

	"github.com/juju/feedmigrate/feed/transport"
	"github.com/juju/feedmigrate/migrate"
)

type ReconcileSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&ReconcileSuite{})

func sourceEntry(id, version string) transport.CatalogEntry {
	return transport.CatalogEntry{
		PackageRef: transport.PackageRef{ID: id, Version: version},
		ContentURL: "https://src.example/" + id + "." + version + ".nupkg",
	}
}

func (ReconcileSuite) TestMissingVersionsAndIdentities(c *gc.C) {
	source := []transport.CatalogEntry{
		sourceEntry("A", "1.0"),
		sourceEntry("A", "2.0"),
		sourceEntry("B", "1.0"),
	}
	destination := []transport.PackageRef{
		{ID: "A", Version: "1.0"},
	}

	missing := migrate.Missing(source, destination)
	c.Assert(missing, gc.DeepEquals, []transport.CatalogEntry{
		sourceEntry("A", "2.0"),
		sourceEntry("B", "1.0"),
	})
}

func (ReconcileSuite) TestMissingAgainstSelfIsEmpty(c *gc.C) {
	source := []transport.CatalogEntry{
		sourceEntry("A", "1.0"),
		sourceEntry("B", "1.0"),
	}
	destination := make([]transport.PackageRef, len(source))
	for i, entry := range source {
		destination[i] = entry.PackageRef
	}

	c.Assert(migrate.Missing(source, destination), gc.HasLen, 0)
}

func (ReconcileSuite) TestMissingAgainstEmptyIsEverything(c *gc.C) {
	source := []transport.CatalogEntry{
		sourceEntry("A", "1.0"),
		sourceEntry("B", "1.0"),
	}

	c.Assert(migrate.Missing(source, nil), gc.DeepEquals, source)
}

func (ReconcileSuite) TestMissingEmptySource(c *gc.C) {
	destination := []transport.PackageRef{{ID: "A", Version: "1.0"}}
	c.Assert(migrate.Missing(nil, destination), gc.HasLen, 0)
}

func (ReconcileSuite) TestVersionsCompareExactly(c *gc.C) {
	// No semantic version coercion: 1.0 and 1.0.0 are distinct, and
	// comparison is case sensitive.
	source := []transport.CatalogEntry{
		sourceEntry("A", "1.0.0"),
		sourceEntry("A", "1.0.0-BETA"),
	}
	destination := []transport.PackageRef{
		{ID: "A", Version: "1.0"},
		{ID: "A", Version: "1.0.0-beta"},
	}

	c.Assert(migrate.Missing(source, destination), gc.DeepEquals, source)
}

func (ReconcileSuite) TestIdempotentAfterMigration(c *gc.C) {
	source := []transport.CatalogEntry{
		sourceEntry("A", "1.0"),
		sourceEntry("A", "2.0"),
		sourceEntry("B", "1.0"),
	}
	destination := []transport.PackageRef{{ID: "A", Version: "1.0"}}

	// Simulate a fully successful migration: the destination now
	// advertises everything it was missing.
	for _, entry := range migrate.Missing(source, destination) {
		destination = append(destination, entry.PackageRef)
	}

	c.Assert(migrate.Missing(source, destination), gc.HasLen, 0)
}
