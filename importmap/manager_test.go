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
	"context"
	"errors"
	"testing"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/internal/mapfs"
)

// fakeResolver resolves every request to version 1.0.0 unless overridden,
// recording each batch it receives.
type fakeResolver struct {
	batches  [][]importmap.RequireOptions
	versions map[string]string
	err      error
}

func (r *fakeResolver) ResolvePackages(ctx context.Context, requests []importmap.RequireOptions) ([]importmap.ResolvedPackage, error) {
	r.batches = append(r.batches, requests)
	if r.err != nil {
		return nil, r.err
	}
	resolved := make([]importmap.ResolvedPackage, 0, len(requests))
	for _, req := range requests {
		version := "1.0.0"
		if v, ok := r.versions[req.PackageModuleSpecifier]; ok {
			version = v
		}
		resolved = append(resolved, importmap.ResolvedPackage{
			Request: req,
			Version: version,
			Type:    importmap.PackageSubpathType(req.PackageModuleSpecifier),
		})
	}
	return resolved, nil
}

type fakeDownloader struct {
	calls int
	err   error
}

func (d *fakeDownloader) DownloadPackages(ctx context.Context) error {
	d.calls++
	return d.err
}

type managerFixture struct {
	fs         *mapfs.MapFileSystem
	store      *importmap.JSONStore
	locator    *fakeLocator
	resolver   *fakeResolver
	downloader *fakeDownloader
	manager    *importmap.Manager
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	mfs := mapfs.New()
	f := &managerFixture{
		fs:         mfs,
		store:      importmap.NewJSONStore(mfs, "/project/importmap.json"),
		locator:    &fakeLocator{byPath: map[string]*asset.Asset{}},
		resolver:   &fakeResolver{},
		downloader: &fakeDownloader{},
	}
	f.manager = importmap.NewManager(mfs, f.store, f.locator, f.resolver, f.downloader, "/project")
	return f
}

// addLocalAsset registers an asset under /project/assets and creates its
// backing file.
func (f *managerFixture) addLocalAsset(t *testing.T, lookupPath, logical string) *asset.Asset {
	t.Helper()
	a := &asset.Asset{
		LogicalPath:     logical,
		SourcePath:      "/project/assets/" + logical,
		PublicPath:      "/assets/" + logical,
		PublicExtension: "js",
	}
	f.locator.byPath[lookupPath] = a
	f.fs.AddFile(a.SourcePath, "export {};", 0644)
	return a
}

func TestRequireLocal(t *testing.T) {
	f := newManagerFixture(t)
	f.addLocalAsset(t, "./assets/app.js", "app.js")

	added, err := f.manager.Require(context.Background(), []importmap.RequireOptions{
		{ImportName: "app", Path: "./assets/app.js", IsEntrypoint: true},
	})
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("added %d entries, want 1", len(added))
	}
	entry := added[0]
	if entry.ImportName != "app" || entry.Path != "./assets/app.js" || !entry.IsEntrypoint {
		t.Errorf("entry = %+v", entry)
	}
	if entry.IsRemotePackage() {
		t.Error("local entry must not carry remote provenance")
	}

	persisted, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !persisted.Has("app") {
		t.Error("entry not persisted")
	}
	if f.downloader.calls != 1 {
		t.Errorf("downloader ran %d times, want 1", f.downloader.calls)
	}
}

func TestRequireLocalUnresolvable(t *testing.T) {
	f := newManagerFixture(t)

	_, err := f.manager.Require(context.Background(), []importmap.RequireOptions{
		{ImportName: "app", Path: "./assets/nope.js"},
	})
	var pathErr *importmap.PathResolutionError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected PathResolutionError, got %v", err)
	}
	if f.fs.Exists("/project/importmap.json") {
		t.Error("failed require must not persist the entry set")
	}
	if f.downloader.calls != 0 {
		t.Error("failed require must not run the downloader")
	}
}

func TestRequireRemote(t *testing.T) {
	f := newManagerFixture(t)
	f.resolver.versions = map[string]string{"lodash": "4.17.21"}

	added, err := f.manager.Require(context.Background(), []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash", Version: "^4"},
		{ImportName: "bootstrap-css", PackageModuleSpecifier: "bootstrap/dist/css/bootstrap.min.css"},
	})
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("added %d entries, want 2", len(added))
	}

	// Both packages resolve in one batch.
	if len(f.resolver.batches) != 1 || len(f.resolver.batches[0]) != 2 {
		t.Errorf("batches = %+v, want one batch of two", f.resolver.batches)
	}

	lodash := added[0]
	if lodash.Path != "lodash" || lodash.Remote == nil || lodash.Remote.Version != "4.17.21" {
		t.Errorf("lodash entry = %+v", lodash)
	}
	css := added[1]
	if css.Type != importmap.TypeCSS {
		t.Errorf("css subpath type = %q, want css", css.Type)
	}
	if f.downloader.calls != 1 {
		t.Errorf("downloader ran %d times, want 1", f.downloader.calls)
	}
}

func TestRequireMixedLocalsFirst(t *testing.T) {
	f := newManagerFixture(t)
	f.addLocalAsset(t, "./assets/app.js", "app.js")

	added, err := f.manager.Require(context.Background(), []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash"},
		{ImportName: "app", Path: "./assets/app.js"},
	})
	if err != nil {
		t.Fatalf("Require failed: %v", err)
	}
	if len(added) != 2 || added[0].ImportName != "app" || added[1].ImportName != "lodash" {
		t.Errorf("added = %+v, want locals before remotes", added)
	}
}

func TestRemove(t *testing.T) {
	f := newManagerFixture(t)
	vendor := f.addLocalAsset(t, "lodash", "vendor/lodash.index.js")

	entries := importmap.NewEntries()
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"))
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))
	if err := f.store.Save(entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := f.manager.Remove(context.Background(), []string{"lodash"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	persisted, err := f.store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if persisted.Has("lodash") {
		t.Error("lodash still present after Remove")
	}
	if !persisted.Has("app") {
		t.Error("unrelated entry removed")
	}
	if f.fs.Exists(vendor.SourcePath) {
		t.Error("vendor file not deleted")
	}
}

func TestRemoveNotFound(t *testing.T) {
	f := newManagerFixture(t)

	entries := importmap.NewEntries()
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))
	if err := f.store.Save(entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	before, _ := f.fs.ReadFile("/project/importmap.json")

	err := f.manager.Remove(context.Background(), []string{"app", "ghost"})
	var notFound *importmap.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.ImportName != "ghost" {
		t.Errorf("ImportName = %q, want ghost", notFound.ImportName)
	}

	after, _ := f.fs.ReadFile("/project/importmap.json")
	if string(before) != string(after) {
		t.Error("failed remove must leave the entry set unpersisted")
	}
}

func TestUpdateAll(t *testing.T) {
	f := newManagerFixture(t)
	f.resolver.versions = map[string]string{"lodash": "4.18.0", "preact": "10.20.0"}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"))
	entries.Add(importmap.NewLocalEntry("app", "./assets/app.js", importmap.TypeJS, true))
	entries.Add(importmap.NewRemoteEntry("preact", "preact", importmap.TypeJS, false, "10.19.0", "preact"))
	if err := f.store.Save(entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	f.addLocalAsset(t, "./assets/app.js", "app.js")

	updated, err := f.manager.Update(context.Background(), nil)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("updated %d entries, want 2", len(updated))
	}
	if updated[0].Remote.Version != "4.18.0" || updated[1].Remote.Version != "10.20.0" {
		t.Errorf("updated = %+v", updated)
	}

	// Updates re-resolve from the original specifier with no pin.
	if len(f.resolver.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(f.resolver.batches))
	}
	for _, req := range f.resolver.batches[0] {
		if req.Version != "" {
			t.Errorf("update pinned a version: %+v", req)
		}
	}

	persisted, _ := f.store.Load()
	if !persisted.Has("app") {
		t.Error("local entry dropped by update")
	}
}

func TestUpdateFiltered(t *testing.T) {
	f := newManagerFixture(t)
	f.resolver.versions = map[string]string{"lodash": "4.18.0"}

	entries := importmap.NewEntries()
	entries.Add(importmap.NewRemoteEntry("lodash", "lodash", importmap.TypeJS, false, "4.17.21", "lodash"))
	entries.Add(importmap.NewRemoteEntry("preact", "preact", importmap.TypeJS, false, "10.19.0", "preact"))
	if err := f.store.Save(entries); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	updated, err := f.manager.Update(context.Background(), []string{"lodash"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(updated) != 1 || updated[0].ImportName != "lodash" {
		t.Fatalf("updated = %+v, want only lodash", updated)
	}

	persisted, _ := f.store.Load()
	preact, _ := persisted.Get("preact")
	if preact.Remote.Version != "10.19.0" {
		t.Errorf("filtered update touched preact: %+v", preact)
	}
}

func TestRequireResolverFailure(t *testing.T) {
	f := newManagerFixture(t)
	f.resolver.err = errors.New("registry unreachable")

	_, err := f.manager.Require(context.Background(), []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash"},
	})
	if err == nil {
		t.Fatal("expected resolver error to propagate")
	}
	if f.fs.Exists("/project/importmap.json") {
		t.Error("failed require must not persist the entry set")
	}
}
