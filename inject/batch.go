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

package inject

import (
	"runtime"
	"sync"

	"bennypowers.dev/portolan/fs"
	"bennypowers.dev/portolan/importmap"
)

// Options configures batch injection.
type Options struct {
	// Parallel is the number of parallel workers.
	Parallel int
	// DryRun prevents writing files when true.
	DryRun bool
}

// Result holds the result of injecting into a single file.
type Result struct {
	File     string `json:"file"`
	Modified bool   `json:"modified"`
	Error    string `json:"error,omitempty"`
}

// Stats holds aggregate statistics from an inject operation.
type Stats struct {
	Total    int `json:"total"`
	Modified int `json:"modified"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// InjectBatch injects the import map data into multiple HTML files in
// parallel. The data is computed once by the caller and shared read-only
// across workers.
func InjectBatch(osfs fs.FileSystem, files []string, data *importmap.Data, opts Options) <-chan Result {
	results := make(chan Result, len(files))

	go func() {
		defer close(results)

		parallel := opts.Parallel
		if parallel <= 0 {
			parallel = runtime.NumCPU()
		}

		jobs := make(chan string, len(files))

		var wg sync.WaitGroup
		for range parallel {
			wg.Go(func() {
				for htmlFile := range jobs {
					results <- injectFile(osfs, htmlFile, data, opts.DryRun)
				}
			})
		}

		for _, file := range files {
			jobs <- file
		}
		close(jobs)

		wg.Wait()
	}()

	return results
}

// injectFile processes a single HTML file and updates its import map.
func injectFile(osfs fs.FileSystem, htmlFile string, data *importmap.Data, dryRun bool) Result {
	result := Result{File: htmlFile}

	content, err := osfs.ReadFile(htmlFile)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	updated, err := IntoDocument(content, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if string(updated) == string(content) {
		return result
	}
	result.Modified = true

	if dryRun {
		return result
	}
	if err := osfs.WriteFile(htmlFile, updated, 0o644); err != nil {
		result.Error = err.Error()
	}
	return result
}
