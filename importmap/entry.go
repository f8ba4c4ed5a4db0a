/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package importmap manages the declarative mapping from module names to
// browser-loadable assets: the persisted entry configuration, the
// reconciliation operations that mutate it, and the resolution engine that
// computes the preload-ordered import map consumed by a page renderer.
package importmap

import (
	"path"
	"strings"
)

// EntryType is the kind of asset an entry maps to.
type EntryType string

const (
	TypeJS  EntryType = "js"
	TypeCSS EntryType = "css"
)

// TypeFromExtension infers an entry type from a file extension (without the
// leading dot). Anything that isn't CSS is treated as JavaScript.
func TypeFromExtension(ext string) EntryType {
	if ext == "css" {
		return TypeCSS
	}
	return TypeJS
}

// RemoteSource carries the package-resolution provenance of a remote entry.
type RemoteSource struct {
	// Version is the resolved package version.
	Version string

	// PackageModuleSpecifier is the original request string, kept so
	// updates can re-resolve against the same constraint-free specifier.
	PackageModuleSpecifier string
}

// Entry is one row of the import map configuration. Entries are treated as
// immutable once created; reconciliation replaces them wholesale.
type Entry struct {
	// ImportName is the unique key within an entry set.
	ImportName string

	// Path is a logical asset name, a "./"-prefixed path relative to the
	// project root, or a remote package specifier.
	Path string

	// Type is the asset kind. CSS entries never contribute import edges.
	Type EntryType

	// IsEntrypoint marks entries a page may load directly.
	IsEntrypoint bool

	// Remote is non-nil for entries that came from package resolution.
	Remote *RemoteSource
}

// NewLocalEntry creates an entry backed by a local asset.
func NewLocalEntry(importName, path string, typ EntryType, entrypoint bool) Entry {
	return Entry{
		ImportName:   importName,
		Path:         path,
		Type:         typ,
		IsEntrypoint: entrypoint,
	}
}

// NewRemoteEntry creates an entry backed by a downloaded remote package.
func NewRemoteEntry(importName, path string, typ EntryType, entrypoint bool, version, specifier string) Entry {
	return Entry{
		ImportName:   importName,
		Path:         path,
		Type:         typ,
		IsEntrypoint: entrypoint,
		Remote: &RemoteSource{
			Version:                version,
			PackageModuleSpecifier: specifier,
		},
	}
}

// IsRemotePackage reports whether the entry carries package-resolution
// provenance rather than a plain local path.
func (e Entry) IsRemotePackage() bool {
	return e.Remote != nil
}

// SplitPackageSpecifier splits a package specifier of the form
// "name", "name@constraint", "@scope/name@constraint" or
// "name/subpath@constraint" into the bare specifier and the version
// constraint.
func SplitPackageSpecifier(spec string) (name, constraint string) {
	// The @ of a scope prefix is not a version separator.
	search := spec
	offset := 0
	if strings.HasPrefix(spec, "@") {
		slash := strings.Index(spec, "/")
		if slash < 0 {
			return spec, ""
		}
		search = spec[slash:]
		offset = slash
	}
	if at := strings.LastIndex(search, "@"); at > 0 {
		return spec[:offset+at], spec[offset+at+1:]
	}
	return spec, ""
}

// PackageSubpathType infers the entry type for a package specifier from its
// subpath extension, defaulting to JavaScript.
func PackageSubpathType(spec string) EntryType {
	return TypeFromExtension(strings.TrimPrefix(path.Ext(spec), "."))
}
