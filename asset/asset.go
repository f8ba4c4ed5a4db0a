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

// Package asset provides logical-path asset location and the JavaScript
// import graph extracted from mapped source files.
package asset

// Asset describes one mapped file under an asset root directory.
type Asset struct {
	// LogicalPath is the path relative to the asset root that mapped the
	// file, e.g. "controllers/hello.js".
	LogicalPath string

	// SourcePath is the absolute filesystem path of the file.
	SourcePath string

	// PublicPath is the URL path the asset is served from.
	PublicPath string

	// PublicExtension is the file extension without the leading dot.
	PublicExtension string

	// Imports holds the JavaScript import edges found in the file.
	// Empty for non-JavaScript assets.
	Imports []JavaScriptImport
}

// JavaScriptImport is one import edge from an asset to another module.
type JavaScriptImport struct {
	// ImportName is the module specifier the importing file used, or the
	// target's logical path for relative imports.
	ImportName string

	// IsLazy marks dynamic import() edges, which are deferred to runtime
	// and never preloaded.
	IsLazy bool

	// AddImplicitlyToImportMap marks edges that should synthesize a
	// top-level import map entry when none exists for ImportName.
	AddImplicitlyToImportMap bool

	// Asset is the resolved target, when the import points at a known
	// mapped file. Nil for bare specifiers resolved elsewhere.
	Asset *Asset
}

// Locator resolves paths and logical names to assets.
type Locator interface {
	// Asset resolves a logical path, a "./"-prefixed path relative to the
	// project root, or a remote package specifier to a mapped asset.
	// Returns nil when nothing matches.
	Asset(path string) (*Asset, error)

	// AssetFromSourcePath resolves an absolute filesystem path to a mapped
	// asset. Returns nil when the path is not under any asset root.
	AssetFromSourcePath(path string) (*Asset, error)
}
