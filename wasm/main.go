//go:build js && wasm

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

// Package main provides the WASM entry point for portolan.
package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/registry"
)

// Version is the portolan WASM version.
const Version = "0.1.0"

func main() {
	// Create the portolan namespace object
	portolan := make(map[string]any)
	portolan["resolvePackages"] = js.FuncOf(resolvePackages)
	portolan["version"] = Version

	// Export to global scope
	js.Global().Set("portolan", js.ValueOf(portolan))

	// Keep the program running
	select {}
}

// resolvePackages resolves package specifiers against the npm registry.
// Arguments:
//   - specifiers: string[] - Package specifiers, e.g. ["lodash@^4", "@lit/reactive-element"]
//   - options: object (optional) - Resolution options
//   - registry: string - Registry base URL
//
// Returns a Promise that resolves to a JSON string of resolved packages:
// [{"name": ..., "version": ..., "type": ...}, ...].
func resolvePackages(this js.Value, args []js.Value) any {
	// Create a new Promise
	handler := js.FuncOf(func(this js.Value, promiseArgs []js.Value) any {
		resolve := promiseArgs[0]
		reject := promiseArgs[1]

		go func() {
			result, err := doResolve(args)
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(result)
		}()

		return nil
	})

	promise := js.Global().Get("Promise").New(handler)
	handler.Release()
	return promise
}

// resolvedPackage is the JS-facing shape of one resolution result.
type resolvedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

// doResolve performs the actual registry resolution.
func doResolve(args []js.Value) (string, error) {
	if len(args) < 1 {
		return "", &jsError{message: "resolvePackages requires at least one argument (specifier array)"}
	}

	specs := args[0]
	requests := make([]importmap.RequireOptions, specs.Length())
	for i := range specs.Length() {
		name, constraint := importmap.SplitPackageSpecifier(specs.Index(i).String())
		requests[i] = importmap.RequireOptions{
			ImportName:             name,
			PackageModuleSpecifier: name,
			Version:                constraint,
		}
	}

	resolver := registry.NewNPMResolver(registry.NewHTTPFetcher())
	if opts := parseOptions(args); opts.registry != "" {
		resolver = resolver.WithBaseURL(opts.registry)
	}

	resolved, err := resolver.ResolvePackages(context.Background(), requests)
	if err != nil {
		return "", &jsError{message: "failed to resolve packages: " + err.Error()}
	}

	results := make([]resolvedPackage, len(resolved))
	for i, r := range resolved {
		results[i] = resolvedPackage{
			Name:    r.Request.ImportName,
			Version: r.Version,
			Type:    string(r.Type),
		}
	}

	jsonBytes, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", &jsError{message: "failed to serialize results: " + err.Error()}
	}
	return string(jsonBytes), nil
}

// resolveOptions holds parsed resolution options.
type resolveOptions struct {
	registry string
}

// parseOptions extracts options from the JavaScript arguments.
func parseOptions(args []js.Value) resolveOptions {
	opts := resolveOptions{}

	if len(args) < 2 || args[1].IsUndefined() || args[1].IsNull() {
		return opts
	}

	optionsObj := args[1]
	if registryVal := optionsObj.Get("registry"); !registryVal.IsUndefined() && !registryVal.IsNull() {
		opts.registry = registryVal.String()
	}

	return opts
}

// jsError represents an error to be returned to JavaScript.
type jsError struct {
	message string
}

func (e *jsError) Error() string {
	return e.message
}
