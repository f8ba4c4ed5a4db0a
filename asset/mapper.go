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

package asset

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/logging"
)

// DefaultPublicPrefix is the URL prefix assets are served from.
const DefaultPublicPrefix = "/assets/"

// VendorDir is the logical directory downloaded packages live under,
// relative to the first asset root.
const VendorDir = "vendor"

// HasKnownExtension reports whether spec ends in a js or css file
// extension. Package names may contain dots (highlight.js, socket.io), so
// path.Ext alone cannot decide whether a specifier names a file.
func HasKnownExtension(spec string) bool {
	switch path.Ext(spec) {
	case ".js", ".css":
		return true
	}
	return false
}

// javascript extensions that participate in import extraction.
var jsExtensions = map[string]bool{
	"js":  true,
	"mjs": true,
	"ts":  true,
}

// Mapper implements Locator over a set of asset root directories.
// Not safe for concurrent use; callers serialize access.
type Mapper struct {
	fs           fs.FileSystem
	rootDir      string
	roots        []string
	publicPrefix string
	excludes     []string
	logger       logging.Logger

	byLogical map[string]*Asset
	bySource  map[string]*Asset
}

// NewMapper creates a Mapper for the project at rootDir with the given asset
// root directories. Relative roots are resolved against rootDir.
func NewMapper(filesystem fs.FileSystem, rootDir string, roots ...string) *Mapper {
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(rootDir, r)
		}
		abs = append(abs, filepath.Clean(r))
	}
	return &Mapper{
		fs:           filesystem,
		rootDir:      filepath.Clean(rootDir),
		roots:        abs,
		publicPrefix: DefaultPublicPrefix,
		byLogical:    make(map[string]*Asset),
		bySource:     make(map[string]*Asset),
	}
}

// WithPublicPrefix returns a Mapper serving assets from the given URL prefix.
func (m *Mapper) WithPublicPrefix(prefix string) *Mapper {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	m.publicPrefix = prefix
	return m
}

// WithExcludes returns a Mapper that ignores files whose logical path matches
// any of the given doublestar patterns.
func (m *Mapper) WithExcludes(patterns []string) *Mapper {
	m.excludes = patterns
	return m
}

// WithLogger returns a Mapper that reports skipped imports to the logger.
func (m *Mapper) WithLogger(logger logging.Logger) *Mapper {
	m.logger = logger
	return m
}

// Asset implements Locator.
func (m *Mapper) Asset(p string) (*Asset, error) {
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") {
		return m.AssetFromSourcePath(filepath.Join(m.rootDir, p))
	}

	// Logical lookup first; remote package specifiers fall back to the
	// vendor directory, with an index file when the specifier has no
	// extension.
	candidates := []string{p}
	if !strings.HasPrefix(p, VendorDir+"/") {
		candidates = append(candidates, path.Join(VendorDir, p))
		if !HasKnownExtension(p) {
			candidates = append(candidates,
				path.Join(VendorDir, p+".index.js"),
				path.Join(VendorDir, p+".index.css"),
			)
		}
	}

	for _, logical := range candidates {
		for _, root := range m.roots {
			source := filepath.Join(root, filepath.FromSlash(logical))
			if info, err := m.fs.Stat(source); err != nil || info.IsDir() {
				continue
			}
			return m.mapFile(root, source)
		}
	}
	return nil, nil
}

// AssetFromSourcePath implements Locator.
func (m *Mapper) AssetFromSourcePath(p string) (*Asset, error) {
	p = filepath.Clean(p)
	for _, root := range m.roots {
		rel, err := filepath.Rel(root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if info, err := m.fs.Stat(p); err != nil || info.IsDir() {
			continue
		}
		return m.mapFile(root, p)
	}
	return nil, nil
}

// mapFile builds (and caches) the Asset for a file under root.
func (m *Mapper) mapFile(root, source string) (*Asset, error) {
	if a, ok := m.bySource[source]; ok {
		return a, nil
	}

	rel, err := filepath.Rel(root, source)
	if err != nil {
		return nil, err
	}
	logical := filepath.ToSlash(rel)

	if m.excluded(logical) {
		return nil, nil
	}
	if a, ok := m.byLogical[logical]; ok {
		return a, nil
	}

	ext := strings.TrimPrefix(path.Ext(logical), ".")
	a := &Asset{
		LogicalPath:     logical,
		SourcePath:      source,
		PublicPath:      m.publicPrefix + logical,
		PublicExtension: ext,
	}

	// Cache before extracting imports so import cycles resolve to the
	// same Asset pointer instead of recursing forever.
	m.byLogical[logical] = a
	m.bySource[source] = a

	if jsExtensions[ext] {
		imports, err := m.extractImports(a)
		if err != nil {
			return nil, err
		}
		a.Imports = imports
	}

	return a, nil
}

// extractImports parses the asset's source and resolves its import edges.
func (m *Mapper) extractImports(a *Asset) ([]JavaScriptImport, error) {
	content, err := m.fs.ReadFile(a.SourcePath)
	if err != nil {
		return nil, err
	}

	raw, err := ExtractImports(content)
	if err != nil {
		return nil, err
	}

	var edges []JavaScriptImport
	for _, imp := range raw {
		if strings.HasPrefix(imp.Specifier, "./") || strings.HasPrefix(imp.Specifier, "../") {
			target := filepath.Join(filepath.Dir(a.SourcePath), filepath.FromSlash(imp.Specifier))
			resolved, err := m.AssetFromSourcePath(target)
			if err != nil {
				return nil, err
			}
			if resolved == nil {
				if m.logger != nil {
					m.logger.Warning("unresolvable import %q in %s", imp.Specifier, a.SourcePath)
				}
				continue
			}
			edges = append(edges, JavaScriptImport{
				ImportName:               resolved.LogicalPath,
				IsLazy:                   imp.IsDynamic,
				AddImplicitlyToImportMap: true,
				Asset:                    resolved,
			})
			continue
		}

		// Bare specifier: the import map decides what it resolves to.
		edges = append(edges, JavaScriptImport{
			ImportName: imp.Specifier,
			IsLazy:     imp.IsDynamic,
		})
	}
	return edges, nil
}

func (m *Mapper) excluded(logical string) bool {
	for _, pattern := range m.excludes {
		if ok, err := doublestar.Match(pattern, logical); err == nil && ok {
			return true
		}
	}
	return false
}
