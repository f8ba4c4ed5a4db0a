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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/logging"
)

// RequireOptions describes one module requirement. A set Path makes the
// requirement local; otherwise PackageModuleSpecifier is resolved remotely.
type RequireOptions struct {
	// ImportName overrides the import map key; defaults to the package
	// specifier without its version constraint.
	ImportName string

	// PackageModuleSpecifier is the requested package, optionally with a
	// subpath and a version constraint, e.g. "lodash",
	// "@lit/reactive-element@^2", "bootstrap/dist/bootstrap.css".
	PackageModuleSpecifier string

	// Version pins a version constraint separately from the specifier.
	Version string

	// Path, when set, requires a local asset instead of a remote package.
	Path string

	// IsEntrypoint marks the resulting entry as a page entrypoint.
	IsEntrypoint bool
}

// ResolvedPackage is the package resolver's answer for one request,
// correlated back to the originating request.
type ResolvedPackage struct {
	Request RequireOptions
	Version string
	Type    EntryType
}

// PackageResolver resolves a batch of package requests in one round trip.
// Results correspond to requests; a failure fails the whole batch.
type PackageResolver interface {
	ResolvePackages(ctx context.Context, requests []RequireOptions) ([]ResolvedPackage, error)
}

// PackageDownloader materializes on disk whatever remote entries currently
// lack local files. Idempotent.
type PackageDownloader interface {
	DownloadPackages(ctx context.Context) error
}

// Manager reconciles require, remove, and update operations against the
// persisted entry set. The entry set file is read once and written once per
// operation; concurrent reconciliations are not safe and must be serialized
// by the caller.
type Manager struct {
	fs         fs.FileSystem
	store      Store
	locator    asset.Locator
	resolver   PackageResolver
	downloader PackageDownloader
	rootDir    string
	logger     logging.Logger
}

// NewManager creates a Manager for the project at rootDir.
func NewManager(
	filesystem fs.FileSystem,
	store Store,
	locator asset.Locator,
	resolver PackageResolver,
	downloader PackageDownloader,
	rootDir string,
) *Manager {
	return &Manager{
		fs:         filesystem,
		store:      store,
		locator:    locator,
		resolver:   resolver,
		downloader: downloader,
		rootDir:    filepath.Clean(rootDir),
	}
}

// WithLogger returns a Manager that reports best-effort cleanup failures.
func (m *Manager) WithLogger(logger logging.Logger) *Manager {
	m.logger = logger
	return m
}

// Require adds entries for the given requirements and returns the newly
// added entries, locals first, then remotes in resolution order.
func (m *Manager) Require(ctx context.Context, requests []RequireOptions) ([]Entry, error) {
	return m.reconcile(ctx, false, requests, nil, nil)
}

// Remove deletes the named entries and their backing files. A missing name
// fails the whole operation and leaves the entry set unpersisted.
func (m *Manager) Remove(ctx context.Context, names []string) error {
	_, err := m.reconcile(ctx, false, nil, names, nil)
	return err
}

// Update re-resolves remote entries against their original specifiers. An
// empty filter updates every remote entry; a non-empty filter updates only
// the named ones.
func (m *Manager) Update(ctx context.Context, names []string) ([]Entry, error) {
	return m.reconcile(ctx, true, nil, nil, names)
}

// reconcile is the single mutation routine shared by all three operations.
// The entry set is persisted only after every mutation succeeded, then the
// downloader runs once to materialize any new remote entries.
func (m *Manager) reconcile(ctx context.Context, update bool, toRequire []RequireOptions, toRemove, toUpdate []string) ([]Entry, error) {
	entries, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	for _, name := range toRemove {
		entry, ok := entries.Get(name)
		if !ok {
			return nil, &NotFoundError{ImportName: name}
		}
		m.cleanupEntryFile(entry)
		entries.Remove(name)
	}

	if update {
		filter := make(map[string]bool, len(toUpdate))
		for _, name := range toUpdate {
			filter[name] = true
		}
		for _, entry := range entries.All() {
			if !entry.IsRemotePackage() {
				continue
			}
			if len(filter) > 0 && !filter[entry.ImportName] {
				continue
			}
			// Re-resolve from the original specifier with no
			// pinned version.
			toRequire = append(toRequire, RequireOptions{
				ImportName:             entry.ImportName,
				PackageModuleSpecifier: entry.Remote.PackageModuleSpecifier,
				IsEntrypoint:           entry.IsEntrypoint,
			})
			m.cleanupEntryFile(entry)
			entries.Remove(entry.ImportName)
		}
	}

	added, err := m.require(ctx, entries, toRequire)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(entries); err != nil {
		return nil, err
	}
	if m.downloader != nil {
		if err := m.downloader.DownloadPackages(ctx); err != nil {
			return nil, err
		}
	}
	return added, nil
}

// require partitions requests into local and remote, resolves locals through
// the asset locator, and resolves all remotes in one resolver batch.
func (m *Manager) require(ctx context.Context, entries *Entries, requests []RequireOptions) ([]Entry, error) {
	var added []Entry
	var remote []RequireOptions

	for _, opts := range requests {
		if opts.Path == "" {
			remote = append(remote, opts)
			continue
		}
		entry, err := m.requireLocal(opts)
		if err != nil {
			return nil, err
		}
		entries.Add(entry)
		added = append(added, entry)
	}

	if len(remote) > 0 {
		if m.resolver == nil {
			return nil, fmt.Errorf("no package resolver configured")
		}
		resolved, err := m.resolver.ResolvePackages(ctx, remote)
		if err != nil {
			return nil, err
		}
		for _, r := range resolved {
			entry := m.remoteEntry(r)
			entries.Add(entry)
			added = append(added, entry)
		}
	}
	return added, nil
}

// requireLocal resolves a local requirement through the asset locator. The
// stored path is relative to the project root when the asset lives under it,
// otherwise the asset's logical path.
func (m *Manager) requireLocal(opts RequireOptions) (Entry, error) {
	a, err := m.locator.Asset(opts.Path)
	if err != nil {
		return Entry{}, err
	}
	if a == nil {
		return Entry{}, &PathResolutionError{Path: opts.Path}
	}

	path := a.LogicalPath
	if rel, err := filepath.Rel(m.rootDir, a.SourcePath); err == nil && !strings.HasPrefix(rel, "..") {
		path = "./" + filepath.ToSlash(rel)
	}

	name := opts.ImportName
	if name == "" {
		name = opts.PackageModuleSpecifier
	}
	return NewLocalEntry(name, path, TypeFromExtension(a.PublicExtension), opts.IsEntrypoint), nil
}

// remoteEntry creates the entry for one resolved package.
func (m *Manager) remoteEntry(r ResolvedPackage) Entry {
	specifier, _ := SplitPackageSpecifier(r.Request.PackageModuleSpecifier)
	name := r.Request.ImportName
	if name == "" {
		name = specifier
	}
	return NewRemoteEntry(name, specifier, r.Type, r.Request.IsEntrypoint, r.Version, r.Request.PackageModuleSpecifier)
}

// cleanupEntryFile deletes the file backing an entry, when it resolves and
// exists. Failures are logged and ignored.
func (m *Manager) cleanupEntryFile(entry Entry) {
	a, err := m.locator.Asset(entry.Path)
	if err != nil || a == nil {
		return
	}
	if !m.fs.Exists(a.SourcePath) {
		return
	}
	if err := m.fs.Remove(a.SourcePath); err != nil && m.logger != nil {
		m.logger.Warning("failed to remove %s: %v", a.SourcePath, err)
	}
}
