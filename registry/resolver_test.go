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

package registry_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/registry"
)

// fakeFetcher serves canned responses by URL and records every fetch.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	fetched   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	body, ok := f.responses[url]
	if !ok {
		return nil, &registry.FetchError{URL: url, StatusCode: 404, Message: "not found"}
	}
	return []byte(body), nil
}

func metadataJSON(name, latest string, versions ...string) string {
	quoted := make([]string, 0, len(versions))
	for _, v := range versions {
		quoted = append(quoted, fmt.Sprintf("%q: {}", v))
	}
	return fmt.Sprintf(`{
		"name": %q,
		"dist-tags": {"latest": %q},
		"versions": {%s}
	}`, name, latest, strings.Join(quoted, ", "))
}

func TestResolvePackages(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]string{
		"https://registry.npmjs.org/lodash": metadataJSON("lodash", "4.17.21", "4.16.0", "4.17.20", "4.17.21"),
		"https://registry.npmjs.org/@lit/reactive-element": metadataJSON("@lit/reactive-element", "2.1.0", "1.6.0", "2.0.0", "2.1.0"),
		"https://registry.npmjs.org/bootstrap":             metadataJSON("bootstrap", "5.3.3", "5.3.2", "5.3.3"),
	}}
	resolver := registry.NewNPMResolver(fetcher)

	requests := []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash"},
		{ImportName: "@lit/reactive-element", PackageModuleSpecifier: "@lit/reactive-element", Version: "^2.0.0"},
		{ImportName: "bootstrap-css", PackageModuleSpecifier: "bootstrap/dist/css/bootstrap.min.css@5.3.2"},
	}
	resolved, err := resolver.ResolvePackages(context.Background(), requests)
	if err != nil {
		t.Fatalf("ResolvePackages failed: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("resolved %d packages, want 3", len(resolved))
	}

	if resolved[0].Version != "4.17.21" {
		t.Errorf("lodash resolved to %q, want the latest dist-tag", resolved[0].Version)
	}
	if resolved[1].Version != "2.1.0" {
		t.Errorf("@lit/reactive-element resolved to %q, want 2.1.0", resolved[1].Version)
	}
	if resolved[2].Version != "5.3.2" {
		t.Errorf("bootstrap resolved to %q, want the pinned 5.3.2", resolved[2].Version)
	}
	if resolved[2].Type != importmap.TypeCSS {
		t.Errorf("css subpath type = %q, want css", resolved[2].Type)
	}
	for i, r := range resolved {
		if r.Request.ImportName != requests[i].ImportName {
			t.Errorf("result %d correlated to %q, want %q", i, r.Request.ImportName, requests[i].ImportName)
		}
	}
}

func TestResolvePackagesFetchesEachPackageOnce(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]string{
		"https://registry.npmjs.org/lit": metadataJSON("lit", "3.1.0", "3.0.0", "3.1.0"),
	}}
	resolver := registry.NewNPMResolver(fetcher)

	_, err := resolver.ResolvePackages(context.Background(), []importmap.RequireOptions{
		{ImportName: "lit", PackageModuleSpecifier: "lit"},
		{ImportName: "lit-decorators", PackageModuleSpecifier: "lit/decorators.js"},
	})
	if err != nil {
		t.Fatalf("ResolvePackages failed: %v", err)
	}
	if len(fetcher.fetched) != 1 {
		t.Errorf("fetched %d times, want one metadata fetch per distinct package: %v",
			len(fetcher.fetched), fetcher.fetched)
	}
}

func TestResolvePackagesNoMatchingVersion(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]string{
		"https://registry.npmjs.org/lodash": metadataJSON("lodash", "4.17.21", "4.17.21"),
	}}
	resolver := registry.NewNPMResolver(fetcher)

	_, err := resolver.ResolvePackages(context.Background(), []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash", Version: "^9.0.0"},
	})
	if err == nil || !strings.Contains(err.Error(), "no version matching") {
		t.Errorf("expected no-matching-version error, got %v", err)
	}
}

func TestResolvePackagesUnknownPackage(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]string{}}
	resolver := registry.NewNPMResolver(fetcher)

	_, err := resolver.ResolvePackages(context.Background(), []importmap.RequireOptions{
		{ImportName: "ghost", PackageModuleSpecifier: "ghost-package"},
	})
	if err == nil {
		t.Fatal("expected error for unknown package")
	}
	if !registry.IsNotFound(err) {
		t.Errorf("expected a not-found fetch error, got %v", err)
	}
}

func TestResolvePackagesCustomRegistry(t *testing.T) {
	fetcher := &fakeFetcher{responses: map[string]string{
		"https://npm.example.com/lodash": metadataJSON("lodash", "4.17.21", "4.17.21"),
	}}
	resolver := registry.NewNPMResolver(fetcher).WithBaseURL("https://npm.example.com/")

	resolved, err := resolver.ResolvePackages(context.Background(), []importmap.RequireOptions{
		{ImportName: "lodash", PackageModuleSpecifier: "lodash"},
	})
	if err != nil {
		t.Fatalf("ResolvePackages failed: %v", err)
	}
	if resolved[0].Version != "4.17.21" {
		t.Errorf("resolved %q via custom registry", resolved[0].Version)
	}
}
