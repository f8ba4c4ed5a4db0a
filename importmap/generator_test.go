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

package importmap_test

import (
	"errors"
	"path"
	"reflect"
	"strings"
	"testing"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/internal/mapfs"
)

// memStore serves a fixed entry set without touching the filesystem.
type memStore struct {
	entries *importmap.Entries
	saved   *importmap.Entries
}

func (s *memStore) Load() (*importmap.Entries, error) { return s.entries, nil }
func (s *memStore) Save(entries *importmap.Entries) error {
	s.saved = entries
	return nil
}

// fakeLocator serves hand-built assets keyed by entry path.
type fakeLocator struct {
	byPath map[string]*asset.Asset
}

func (l *fakeLocator) Asset(p string) (*asset.Asset, error) {
	return l.byPath[p], nil
}

func (l *fakeLocator) AssetFromSourcePath(p string) (*asset.Asset, error) {
	for _, a := range l.byPath {
		if a.SourcePath == p {
			return a, nil
		}
	}
	return nil, nil
}

func newAsset(logical string) *asset.Asset {
	return &asset.Asset{
		LogicalPath:     logical,
		SourcePath:      "/project/assets/" + logical,
		PublicPath:      "/assets/" + logical,
		PublicExtension: strings.TrimPrefix(path.Ext(logical), "."),
	}
}

// implicitEdge links an asset that the locator discovered by resolving a
// relative import.
func implicitEdge(target *asset.Asset, lazy bool) asset.JavaScriptImport {
	return asset.JavaScriptImport{
		ImportName:               target.LogicalPath,
		IsLazy:                   lazy,
		AddImplicitlyToImportMap: true,
		Asset:                    target,
	}
}

// bareEdge references a specifier the import map must resolve.
func bareEdge(name string, lazy bool) asset.JavaScriptImport {
	return asset.JavaScriptImport{ImportName: name, IsLazy: lazy}
}

func TestRawImportMapData(t *testing.T) {
	app := newAsset("app.js")
	dep := newAsset("dep.js")
	admin := newAsset("admin.js")
	lodash := newAsset("vendor/lodash.index.js")
	app.Imports = []asset.JavaScriptImport{
		implicitEdge(dep, false),
		bareEdge("lodash", false),
		implicitEdge(admin, true),
	}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/app.js": app,
		"lodash":          lodash,
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	raw, err := g.RawImportMapData()
	if err != nil {
		t.Fatalf("RawImportMapData failed: %v", err)
	}

	// Configured entries first, then implicit entries in discovery order.
	// The lazy import is still part of the closure.
	want := []string{"app", "lodash", "dep.js", "admin.js"}
	if got := raw.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}

	appEntry, _ := raw.Get("app")
	if appEntry.Path != "/assets/app.js" {
		t.Errorf("app path = %q, want public path", appEntry.Path)
	}
	depEntry, _ := raw.Get("dep.js")
	if depEntry.Path != "/assets/dep.js" || depEntry.Type != importmap.TypeJS {
		t.Errorf("dep.js = %+v", depEntry)
	}
}

func TestRawImportMapDataTerminatesOnCycle(t *testing.T) {
	a := newAsset("a.js")
	b := newAsset("b.js")
	a.Imports = []asset.JavaScriptImport{implicitEdge(b, false)}
	b.Imports = []asset.JavaScriptImport{implicitEdge(a, false)}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("a.js", "./assets/a.js", importmap.TypeJS, false))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/a.js": a,
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	raw, err := g.RawImportMapData()
	if err != nil {
		t.Fatalf("RawImportMapData failed: %v", err)
	}
	if got := raw.Names(); !reflect.DeepEqual(got, []string{"a.js", "b.js"}) {
		t.Errorf("Names = %v, want each module once", got)
	}
}

func TestRawImportMapDataCSS(t *testing.T) {
	app := newAsset("app.js")
	theme := newAsset("styles/theme.css")
	app.Imports = []asset.JavaScriptImport{implicitEdge(theme, false)}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/app.js": app,
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	raw, err := g.RawImportMapData()
	if err != nil {
		t.Fatalf("RawImportMapData failed: %v", err)
	}
	themeEntry, ok := raw.Get("styles/theme.css")
	if !ok {
		t.Fatal("implicit css entry missing from closure")
	}
	if themeEntry.Type != importmap.TypeCSS {
		t.Errorf("theme type = %q, want css", themeEntry.Type)
	}
}

func TestRawImportMapDataMissingAsset(t *testing.T) {
	tests := []struct {
		name    string
		entry   importmap.Entry
		wantMsg string
	}{
		{
			"remote entry suggests install",
			importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"),
			"portolan install",
		},
		{
			"local entry names the path",
			importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true),
			"not found under any asset root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := importmap.NewEntries()
			entries.Add(tt.entry)
			g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, &fakeLocator{byPath: map[string]*asset.Asset{}})

			_, err := g.RawImportMapData()
			var missing *importmap.MissingAssetError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingAssetError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestImportMapDataPreloadOrder(t *testing.T) {
	a := newAsset("a.js")
	b := newAsset("b.js")
	x := newAsset("x.js")
	y := newAsset("y.js")
	lazy := newAsset("lazy.js")
	a.Imports = []asset.JavaScriptImport{
		implicitEdge(x, false),
		implicitEdge(lazy, true),
	}
	b.Imports = []asset.JavaScriptImport{implicitEdge(y, false)}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("a", "./assets/a.js", importmap.TypeJS, true))
	entries.Add(importmap.NewLocalEntry("b", "./assets/b.js", importmap.TypeJS, true))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/a.js": a,
		"./assets/b.js": b,
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	data, err := g.ImportMapData([]string{"a", "b"})
	if err != nil {
		t.Fatalf("ImportMapData failed: %v", err)
	}

	// Each entrypoint followed by its eager chain, then the rest of the
	// closure. The lazy import is mapped but not preloaded.
	want := []string{"a", "x.js", "b", "y.js", "lazy.js"}
	if got := data.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}

	for _, name := range []string{"a", "x.js", "b", "y.js"} {
		entry, _ := data.Get(name)
		if !entry.Preload {
			t.Errorf("%s should be preloaded", name)
		}
	}
	lazyEntry, _ := data.Get("lazy.js")
	if lazyEntry.Preload {
		t.Error("lazy.js must not be preloaded")
	}
}

func TestImportMapDataEagerRemote(t *testing.T) {
	app := newAsset("app.js")
	lodash := newAsset("vendor/lodash.index.js")
	app.Imports = []asset.JavaScriptImport{bareEdge("lodash", false)}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/app.js": app,
		"lodash":          lodash,
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	data, err := g.ImportMapData([]string{"app"})
	if err != nil {
		t.Fatalf("ImportMapData failed: %v", err)
	}
	entry, ok := data.Get("lodash")
	if !ok || !entry.Preload {
		t.Errorf("eagerly imported package should be preloaded: %+v", entry)
	}
}

func TestImportMapDataEntrypointErrors(t *testing.T) {
	app := newAsset("app.js")
	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("plain", "./assets/app.js", importmap.TypeJS, false))
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, true, "4.17.21", "lodash"))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/app.js": app,
		"lodash":          newAsset("vendor/lodash.index.js"),
	}}
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: entries}, locator)

	tests := []struct {
		name       string
		entrypoint string
	}{
		{"unknown name", "nope"},
		{"remote package", "lodash"},
		{"not an entrypoint", "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.ImportMapData([]string{tt.entrypoint})
			var epErr *importmap.EntrypointError
			if !errors.As(err, &epErr) {
				t.Fatalf("expected EntrypointError, got %v", err)
			}
			if epErr.ImportName != tt.entrypoint {
				t.Errorf("ImportName = %q, want %q", epErr.ImportName, tt.entrypoint)
			}
		})
	}
}

func TestDumpShortCircuitsComputation(t *testing.T) {
	app := newAsset("app.js")
	dep := newAsset("dep.js")
	app.Imports = []asset.JavaScriptImport{implicitEdge(dep, false)}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))

	locator := &fakeLocator{byPath: map[string]*asset.Asset{
		"./assets/app.js": app,
	}}
	mfs := mapfs.New()
	store := &memStore{entries: entries}
	g := importmap.NewGenerator(mfs, store, locator).WithCacheDir("/var/importmap")

	if err := g.Dump([]string{"app"}); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if !mfs.Exists("/var/importmap/importmap.json") {
		t.Fatal("raw artifact not written")
	}
	if !mfs.Exists("/var/importmap/entrypoint.app.json") {
		t.Fatal("entrypoint artifact not written")
	}

	// Later entry set changes are invisible while the artifacts exist.
	entries.Add(importmap.NewLocalEntry("later", "./assets/later.js", importmap.TypeJS, false))

	data, err := g.ImportMapData([]string{"app"})
	if err != nil {
		t.Fatalf("ImportMapData failed: %v", err)
	}
	if data.Has("later") {
		t.Error("cached artifact should shadow new entries")
	}
	if got := data.Names(); !reflect.DeepEqual(got, []string{"app", "dep.js"}) {
		t.Errorf("Names = %v, want cached [app dep.js]", got)
	}
}

func TestDumpRequiresCacheDir(t *testing.T) {
	g := importmap.NewGenerator(mapfs.New(), &memStore{entries: importmap.NewEntries()}, &fakeLocator{})
	if err := g.Dump(nil); err == nil {
		t.Error("expected error without a cache directory")
	}
}
