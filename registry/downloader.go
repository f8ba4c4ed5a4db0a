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

package registry

import (
	"context"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"strings"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/logging"
)

// DefaultCDNURL is the CDN packages are downloaded from.
const DefaultCDNURL = "https://cdn.jsdelivr.net/npm"

// CDNDownloader implements importmap.PackageDownloader by fetching remote
// entries into the vendor directory. Entries whose files already exist are
// skipped, so calling it repeatedly is safe.
type CDNDownloader struct {
	fs        fs.FileSystem
	fetcher   Fetcher
	store     importmap.Store
	vendorDir string
	baseURL   string
	logger    logging.Logger
}

// NewCDNDownloader creates a downloader writing under vendorDir.
func NewCDNDownloader(filesystem fs.FileSystem, fetcher Fetcher, store importmap.Store, vendorDir string) *CDNDownloader {
	return &CDNDownloader{
		fs:        filesystem,
		fetcher:   fetcher,
		store:     store,
		vendorDir: vendorDir,
		baseURL:   DefaultCDNURL,
	}
}

// WithBaseURL returns a downloader against a custom CDN URL.
func (d *CDNDownloader) WithBaseURL(baseURL string) *CDNDownloader {
	d.baseURL = strings.TrimSuffix(baseURL, "/")
	return d
}

// WithLogger returns a downloader that reports progress.
func (d *CDNDownloader) WithLogger(logger logging.Logger) *CDNDownloader {
	d.logger = logger
	return d
}

// DownloadPackages implements importmap.PackageDownloader.
func (d *CDNDownloader) DownloadPackages(ctx context.Context) error {
	entries, err := d.store.Load()
	if err != nil {
		return err
	}

	for _, entry := range entries.All() {
		if !entry.IsRemotePackage() {
			continue
		}

		target := filepath.Join(d.vendorDir, filepath.FromSlash(VendorPath(entry)))
		if d.fs.Exists(target) {
			continue
		}

		url := d.downloadURL(entry)
		if d.logger != nil {
			d.logger.Debug("downloading %s from %s", entry.Path, url)
		}
		data, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to download package %s: %w", entry.Path, err)
		}

		if err := d.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := d.fs.WriteFile(target, data, 0644); err != nil {
			return err
		}
	}

	return d.prune(entries)
}

// prune removes vendored files no remote entry claims, so removed or
// updated packages don't leave stale downloads behind.
func (d *CDNDownloader) prune(entries *importmap.Entries) error {
	if !d.fs.Exists(d.vendorDir) {
		return nil
	}

	keep := make(map[string]bool)
	for _, entry := range entries.All() {
		if entry.IsRemotePackage() {
			keep[filepath.Join(d.vendorDir, filepath.FromSlash(VendorPath(entry)))] = true
		}
	}

	return iofs.WalkDir(d.fs, d.vendorDir, func(p string, dent iofs.DirEntry, err error) error {
		if err != nil || dent.IsDir() || keep[p] {
			return err
		}
		if d.logger != nil {
			d.logger.Debug("removing stale vendor file %s", p)
		}
		return d.fs.Remove(p)
	})
}

// VendorPath returns a remote entry's file path relative to the vendor
// directory. Specifiers that don't already name a js or css file get an
// index file named for the entry type.
func VendorPath(entry importmap.Entry) string {
	p := entry.Path
	if !asset.HasKnownExtension(p) {
		p += ".index." + string(entry.Type)
	}
	return p
}

// downloadURL builds the CDN URL for a remote entry. Extension-less
// JavaScript specifiers use the CDN's ESM entry.
func (d *CDNDownloader) downloadURL(entry importmap.Entry) string {
	name := PackageName(entry.Path)
	subpath := strings.TrimPrefix(entry.Path, name)
	version := ""
	if entry.Remote != nil {
		version = entry.Remote.Version
	}

	url := fmt.Sprintf("%s/%s@%s", d.baseURL, name, version)
	if subpath != "" {
		return url + subpath
	}
	if entry.Type == importmap.TypeJS {
		return url + "/+esm"
	}
	return url
}
