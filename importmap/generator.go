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

package importmap

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/logging"
)

const (
	// rawCacheFile is the dumped raw import map artifact, relative to the
	// cache directory. When present it replaces closure computation.
	rawCacheFile = "importmap.json"

	// entrypointCacheFilePattern names the dumped per-entrypoint eager
	// import chain artifacts.
	entrypointCacheFilePattern = "entrypoint.%s.json"
)

// Generator computes the import map data consumed by a page renderer: the
// implicit-dependency closure of the configured entries, the eager import
// chain per entrypoint, and the preload-ordered merge of the two.
type Generator struct {
	fs       fs.FileSystem
	store    Store
	locator  asset.Locator
	cacheDir string
	logger   logging.Logger
}

// NewGenerator creates a Generator over the given entry store and asset
// locator.
func NewGenerator(filesystem fs.FileSystem, store Store, locator asset.Locator) *Generator {
	return &Generator{fs: filesystem, store: store, locator: locator}
}

// WithCacheDir returns a Generator that short-circuits computation from
// dumped cache artifacts in dir, when present.
func (g *Generator) WithCacheDir(dir string) *Generator {
	g.cacheDir = dir
	return g
}

// WithLogger returns a Generator that reports traversal details.
func (g *Generator) WithLogger(logger logging.Logger) *Generator {
	g.logger = logger
	return g
}

// RawImportMapData returns the transitive closure of all entries reachable
// from the configured entry set: every configured entry plus every implicit
// entry synthesized from import edges. A dumped raw artifact, when present,
// replaces the computation entirely.
func (g *Generator) RawImportMapData() (*RawMap, error) {
	if cached, err := g.cachedRawData(); cached != nil || err != nil {
		return cached, err
	}

	entries, err := g.store.Load()
	if err != nil {
		return nil, err
	}
	raw, _, err := g.computeRawData(entries)
	return raw, err
}

// ImportMapData computes the final renderer-facing map for the given
// entrypoints, in caller-supplied order: each entrypoint's own module and
// its eager imports come first with preload set, followed by the rest of the
// raw closure in its own order.
func (g *Generator) ImportMapData(entrypointNames []string) (*Data, error) {
	entries, err := g.store.Load()
	if err != nil {
		return nil, err
	}

	raw, assets, err := g.rawDataWithAssets(entries)
	if err != nil {
		return nil, err
	}

	out := NewData()
	for _, name := range entrypointNames {
		eager, err := g.entrypointImports(entries, name, assets)
		if err != nil {
			return nil, err
		}
		for _, n := range append([]string{name}, eager...) {
			if out.Has(n) {
				continue
			}
			re, ok := raw.Get(n)
			if !ok {
				// No closure entry: externally resolvable
				// (browser-native or handled by a build tool).
				continue
			}
			out.Set(n, DataEntry{Path: re.Path, Type: re.Type, Preload: true})
			raw.Delete(n)
		}
	}
	for _, n := range raw.Names() {
		re, _ := raw.Get(n)
		out.Set(n, DataEntry{Path: re.Path, Type: re.Type})
	}
	return out, nil
}

// Dump recomputes the raw map and the eager chain for each entrypoint, and
// writes the cache artifacts that later short-circuit render-time
// computation. Everything is computed before anything is written, so a
// failure never leaves a partial map behind.
func (g *Generator) Dump(entrypointNames []string) error {
	if g.cacheDir == "" {
		return fmt.Errorf("no cache directory configured")
	}

	entries, err := g.store.Load()
	if err != nil {
		return err
	}
	raw, assets, err := g.computeRawData(entries)
	if err != nil {
		return err
	}

	chains := make(map[string][]string, len(entrypointNames))
	for _, name := range entrypointNames {
		chain, err := g.walkEntrypoint(entries, name, assets)
		if err != nil {
			return err
		}
		chains[name] = chain
	}

	if err := g.fs.MkdirAll(g.cacheDir, 0755); err != nil {
		return err
	}
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	if err := g.fs.WriteFile(filepath.Join(g.cacheDir, rawCacheFile), rawJSON, 0644); err != nil {
		return err
	}
	for name, chain := range chains {
		if chain == nil {
			chain = []string{}
		}
		data, err := json.Marshal(chain)
		if err != nil {
			return err
		}
		file := filepath.Join(g.cacheDir, fmt.Sprintf(entrypointCacheFilePattern, name))
		if err := g.fs.WriteFile(file, data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// cachedRawData loads the dumped raw artifact, if any.
func (g *Generator) cachedRawData() (*RawMap, error) {
	if g.cacheDir == "" {
		return nil, nil
	}
	path := filepath.Join(g.cacheDir, rawCacheFile)
	data, err := g.fs.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	raw := NewRawMap()
	if err := json.Unmarshal(data, raw); err != nil {
		return nil, fmt.Errorf("failed to parse cached import map %s: %w", path, err)
	}
	if g.logger != nil {
		g.logger.Debug("using cached import map data from %s", path)
	}
	return raw, nil
}

// rawDataWithAssets returns raw data plus the per-name resolved assets,
// using the dumped artifact when available.
func (g *Generator) rawDataWithAssets(entries *Entries) (*RawMap, map[string]*asset.Asset, error) {
	if cached, err := g.cachedRawData(); cached != nil || err != nil {
		return cached, make(map[string]*asset.Asset), err
	}
	return g.computeRawData(entries)
}

// computeRawData builds the implicit-dependency closure with an explicit
// worklist. The accumulator doubles as the visited set; membership is
// checked before expansion, which is what guarantees termination on cyclic
// import graphs.
func (g *Generator) computeRawData(entries *Entries) (*RawMap, map[string]*asset.Asset, error) {
	acc := NewEntries()
	assets := make(map[string]*asset.Asset)

	work := entries.All()
	for _, e := range work {
		acc.Add(e)
	}

	for len(work) > 0 {
		e := work[0]
		work = work[1:]

		// CSS terminates traversal: no import edges.
		if e.Type != TypeJS {
			continue
		}

		a, err := g.assetFor(e, assets)
		if err != nil {
			return nil, nil, err
		}

		for _, imp := range a.Imports {
			if acc.Has(imp.ImportName) {
				continue
			}
			var next Entry
			switch {
			case imp.AddImplicitlyToImportMap && imp.Asset != nil:
				next = NewLocalEntry(
					imp.ImportName,
					imp.Asset.LogicalPath,
					TypeFromExtension(imp.Asset.PublicExtension),
					false,
				)
				assets[imp.ImportName] = imp.Asset
			default:
				root, ok := entries.Get(imp.ImportName)
				if !ok {
					continue
				}
				next = root
			}
			acc.Add(next)
			work = append(work, next)
		}
	}

	raw := NewRawMap()
	for _, e := range acc.All() {
		a, err := g.assetFor(e, assets)
		if err != nil {
			return nil, nil, err
		}
		raw.Set(e.ImportName, RawEntry{Path: a.PublicPath, Type: e.Type})
	}
	return raw, assets, nil
}

// entrypointImports returns the eager import chain for an entrypoint,
// preferring the dumped per-entrypoint artifact when present.
func (g *Generator) entrypointImports(entries *Entries, name string, assets map[string]*asset.Asset) ([]string, error) {
	if g.cacheDir != "" {
		path := filepath.Join(g.cacheDir, fmt.Sprintf(entrypointCacheFilePattern, name))
		if data, err := g.fs.ReadFile(path); err == nil {
			var names []string
			if err := json.Unmarshal(data, &names); err != nil {
				return nil, fmt.Errorf("failed to parse cached entrypoint data %s: %w", path, err)
			}
			return names, nil
		}
	}
	return g.walkEntrypoint(entries, name, assets)
}

// walkEntrypoint validates the entrypoint entry and walks its eager imports.
func (g *Generator) walkEntrypoint(entries *Entries, name string, assets map[string]*asset.Asset) ([]string, error) {
	entry, ok := entries.Get(name)
	if !ok {
		return nil, &EntrypointError{ImportName: name, Reason: "does not exist in the import map"}
	}
	if entry.IsRemotePackage() {
		return nil, &EntrypointError{ImportName: name, Reason: "is a remote package and cannot be used as an entrypoint"}
	}
	if !entry.IsEntrypoint {
		return nil, &EntrypointError{ImportName: name, Reason: "is not marked as an entrypoint"}
	}

	a, err := g.assetFor(entry, assets)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{name: true}
	return g.eagerImports(a, seen), nil
}

// eagerImports walks non-lazy import edges depth first, emitting each
// reachable module name once. Lazy edges terminate their branch. The seen
// set guards against import cycles; on acyclic graphs the emitted order is
// identical to an unguarded walk.
func (g *Generator) eagerImports(a *asset.Asset, seen map[string]bool) []string {
	var names []string
	for _, imp := range a.Imports {
		if imp.IsLazy || seen[imp.ImportName] {
			continue
		}
		seen[imp.ImportName] = true
		names = append(names, imp.ImportName)
		if imp.Asset != nil {
			names = append(names, g.eagerImports(imp.Asset, seen)...)
		}
	}
	return names
}

// assetFor resolves and memoizes the backing asset for an entry.
func (g *Generator) assetFor(e Entry, assets map[string]*asset.Asset) (*asset.Asset, error) {
	if a, ok := assets[e.ImportName]; ok {
		return a, nil
	}
	a, err := g.locator.Asset(e.Path)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, &MissingAssetError{Entry: e}
	}
	assets[e.ImportName] = a
	return a, nil
}
