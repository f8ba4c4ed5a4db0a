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
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/logging"
)

// DefaultRegistryURL is the npm registry queried for package metadata.
const DefaultRegistryURL = "https://registry.npmjs.org"

// registryPackage is the subset of npm registry metadata the resolver needs.
type registryPackage struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]json.RawMessage `json:"versions"`
}

// NPMResolver implements importmap.PackageResolver against an npm-style
// registry. One batch issues at most one metadata fetch per distinct
// package, with bounded concurrency.
type NPMResolver struct {
	fetcher Fetcher
	baseURL string
	logger  logging.Logger
}

// NewNPMResolver creates a resolver against the public npm registry.
func NewNPMResolver(fetcher Fetcher) *NPMResolver {
	return &NPMResolver{fetcher: fetcher, baseURL: DefaultRegistryURL}
}

// WithBaseURL returns a resolver against a custom registry URL.
func (r *NPMResolver) WithBaseURL(baseURL string) *NPMResolver {
	r.baseURL = strings.TrimSuffix(baseURL, "/")
	return r
}

// WithLogger returns a resolver that reports resolution details.
func (r *NPMResolver) WithLogger(logger logging.Logger) *NPMResolver {
	r.logger = logger
	return r
}

// parsedRequest is one request split into its registry components.
type parsedRequest struct {
	pkg        string // registry package name, e.g. "@lit/reactive-element"
	specifier  string // bare specifier including subpath, no constraint
	constraint string // version constraint, empty means latest
}

// ResolvePackages implements importmap.PackageResolver.
func (r *NPMResolver) ResolvePackages(ctx context.Context, requests []importmap.RequireOptions) ([]importmap.ResolvedPackage, error) {
	parsed := make([]parsedRequest, len(requests))
	distinct := make(map[string]bool)
	for i, req := range requests {
		specifier, constraint := importmap.SplitPackageSpecifier(req.PackageModuleSpecifier)
		if req.Version != "" {
			constraint = req.Version
		}
		pkg := PackageName(specifier)
		parsed[i] = parsedRequest{pkg: pkg, specifier: specifier, constraint: constraint}
		distinct[pkg] = true
	}

	metadata, err := r.fetchMetadata(ctx, distinct)
	if err != nil {
		return nil, err
	}

	results := make([]importmap.ResolvedPackage, len(requests))
	for i, req := range requests {
		p := parsed[i]
		version, err := resolveVersion(metadata[p.pkg], p.constraint)
		if err != nil {
			return nil, err
		}
		if r.logger != nil {
			r.logger.Debug("resolved %s@%s", p.specifier, version)
		}
		results[i] = importmap.ResolvedPackage{
			Request: req,
			Version: version,
			Type:    importmap.PackageSubpathType(p.specifier),
		}
	}
	return results, nil
}

// fetchMetadata retrieves registry metadata for every distinct package.
func (r *NPMResolver) fetchMetadata(ctx context.Context, packages map[string]bool) (map[string]*registryPackage, error) {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		sem      = make(chan struct{}, 6) // limit concurrent registry calls
		metadata = make(map[string]*registryPackage, len(packages))
	)

	for pkg := range packages {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			url := fmt.Sprintf("%s/%s", r.baseURL, name)
			data, err := r.fetcher.Fetch(ctx, url)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to fetch package %s: %w", name, err)
				}
				mu.Unlock()
				return
			}

			var pkg registryPackage
			if err := json.Unmarshal(data, &pkg); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to parse metadata for %s: %w", name, err)
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			metadata[name] = &pkg
			mu.Unlock()
		}(pkg)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return metadata, nil
}

// resolveVersion resolves a constraint against package metadata: dist-tags
// first, then exact versions, then range matching.
func resolveVersion(pkg *registryPackage, constraint string) (string, error) {
	if pkg == nil {
		return "", fmt.Errorf("no registry metadata available")
	}

	if tag, ok := pkg.DistTags[constraint]; ok {
		return tag, nil
	}
	if _, ok := pkg.Versions[constraint]; ok {
		return constraint, nil
	}

	versions := make([]string, 0, len(pkg.Versions))
	for v := range pkg.Versions {
		versions = append(versions, v)
	}
	matched := matchVersion(versions, constraint)
	if matched == "" {
		return "", fmt.Errorf("no version matching %q found for package %s", constraint, pkg.Name)
	}
	return matched, nil
}

// PackageName extracts the registry package name from a bare specifier,
// handling scoped packages (@scope/name) and subpaths (lit/decorators.js).
func PackageName(spec string) string {
	if strings.HasPrefix(spec, "@") {
		parts := strings.SplitN(spec, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return spec
	}
	if idx := strings.Index(spec, "/"); idx > 0 {
		return spec[:idx]
	}
	return spec
}
