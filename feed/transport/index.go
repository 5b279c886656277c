// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package transport

// ServiceIndex is the root document of a feed, listing its typed
// sub-resources and their locations.
type ServiceIndex struct {
	Version   string     `json:"version"`
	Resources []Resource `json:"resources"`
}

// Resource is one typed endpoint declared by a service index.
type Resource struct {
	ID   string `json:"@id"`
	Type string `json:"@type"`
}
