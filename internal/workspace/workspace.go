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

// Package workspace wires the shared collaborators every portolan command
// needs from the persistent flag configuration.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/portolan/asset"
	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/logging"
	"bennypowers.dev/portolan/registry"
)

// Workspace bundles the project-level collaborators built from persistent
// flags: the filesystem, asset locator, and entry set store.
type Workspace struct {
	FS      fs.FileSystem
	Logger  logging.Logger
	Mapper  *asset.Mapper
	Store   importmap.Store
	RootDir string
	// VendorDir is the absolute path downloaded packages are written to.
	VendorDir string
}

// New resolves the persistent flags into a wired Workspace.
func New() (*Workspace, error) {
	osfs := fs.NewOSFileSystem()
	rootDir, err := filepath.Abs(viper.GetString("root"))
	if err != nil {
		return nil, fmt.Errorf("invalid root directory: %w", err)
	}

	roots := viper.GetStringSlice("asset-root")
	if len(roots) == 0 {
		roots = []string{"assets"}
	}

	logger := logging.New(os.Stderr, viper.GetBool("verbose"))

	mapper := asset.NewMapper(osfs, rootDir, roots...).WithLogger(logger)
	if excludes := viper.GetStringSlice("exclude"); len(excludes) > 0 {
		mapper = mapper.WithExcludes(excludes)
	}

	mapFile := viper.GetString("map")
	if mapFile == "" {
		mapFile = importmap.DefaultConfigFile
	}
	if !filepath.IsAbs(mapFile) {
		mapFile = filepath.Join(rootDir, mapFile)
	}

	firstRoot := roots[0]
	if !filepath.IsAbs(firstRoot) {
		firstRoot = filepath.Join(rootDir, firstRoot)
	}

	return &Workspace{
		FS:        osfs,
		Logger:    logger,
		Mapper:    mapper,
		Store:     importmap.NewJSONStore(osfs, mapFile),
		RootDir:   rootDir,
		VendorDir: filepath.Join(firstRoot, asset.VendorDir),
	}, nil
}

// Generator builds the import map generator, with cache support when
// --cache-dir is set.
func (w *Workspace) Generator() *importmap.Generator {
	g := importmap.NewGenerator(w.FS, w.Store, w.Mapper).WithLogger(w.Logger)
	if cacheDir := viper.GetString("cache-dir"); cacheDir != "" {
		if !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(w.RootDir, cacheDir)
		}
		g = g.WithCacheDir(cacheDir)
	}
	return g
}

// Downloader builds the CDN package downloader, honoring --cdn.
func (w *Workspace) Downloader() *registry.CDNDownloader {
	d := registry.NewCDNDownloader(w.FS, registry.NewHTTPFetcher(), w.Store, w.VendorDir).
		WithLogger(w.Logger)
	if cdn := viper.GetString("cdn"); cdn != "" {
		d = d.WithBaseURL(cdn)
	}
	return d
}

// Manager builds the entry set manager over the npm registry resolver and
// CDN downloader, honoring --registry and --cdn.
func (w *Workspace) Manager() *importmap.Manager {
	resolver := registry.NewNPMResolver(registry.NewHTTPFetcher()).WithLogger(w.Logger)
	if reg := viper.GetString("registry"); reg != "" {
		resolver = resolver.WithBaseURL(reg)
	}
	return importmap.NewManager(w.FS, w.Store, w.Mapper, resolver, w.Downloader(), w.RootDir).
		WithLogger(w.Logger)
}
