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

// Package inject provides the inject command for portolan.
package inject

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"bennypowers.dev/portolan/inject"
	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the inject command.
var Cmd = &cobra.Command{
	Use:   "inject",
	Short: "Inject import maps into HTML files in-place",
	Long: `Inject the computed import map into HTML files in-place.

For each file, replaces any previously injected import map script and
preload links in the document head and writes the result back.`,
	Example: `  # Inject into all built HTML files
  portolan inject --glob "_site/**/*.html" --entrypoint app

  # Parallel processing with custom worker count
  portolan inject --glob "_site/**/*.html" -j 8

  # Dry run to see what would change
  portolan inject --glob "_site/**/*.html" --dry-run`,
	RunE: run,
}

func init() {
	Cmd.Flags().String("glob", "", "Glob pattern to match HTML files (required)")
	Cmd.Flags().StringSliceP("entrypoint", "e", nil, "Entrypoint names, in page order (can be repeated)")
	Cmd.Flags().IntP("jobs", "j", 0, "Number of parallel workers (default: number of CPUs)")
	Cmd.Flags().Bool("dry-run", false, "Show what would change without modifying files")
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}

	globPattern, _ := cmd.Flags().GetString("glob")
	if globPattern == "" {
		return fmt.Errorf("--glob is required")
	}

	matches, err := doublestar.FilepathGlob(globPattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stderr, "Warning: no files matched the glob pattern")
		return nil
	}

	// Deduplicate by absolute path
	seen := make(map[string]struct{})
	var files []string
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return fmt.Errorf("invalid file path %q: %w", match, err)
		}
		if _, exists := seen[absPath]; !exists {
			seen[absPath] = struct{}{}
			files = append(files, absPath)
		}
	}

	entrypoints, _ := cmd.Flags().GetStringSlice("entrypoint")
	data, err := ws.Generator().ImportMapData(entrypoints)
	if err != nil {
		return err
	}

	parallel, _ := cmd.Flags().GetInt("jobs")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	results := inject.InjectBatch(ws.FS, files, data, inject.Options{
		Parallel: parallel,
		DryRun:   dryRun,
	})

	var stats inject.Stats
	stats.Total = len(files)
	for result := range results {
		switch {
		case result.Error != "":
			stats.Errors++
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", result.File, result.Error)
		case result.Modified:
			stats.Modified++
			if dryRun {
				fmt.Printf("would update %s\n", result.File)
			}
		default:
			stats.Skipped++
		}
	}

	if dryRun {
		fmt.Printf("\nDry run: %d files would be modified, %d unchanged, %d errors\n",
			stats.Modified, stats.Skipped, stats.Errors)
	} else {
		fmt.Printf("Injected: %d files modified, %d unchanged, %d errors\n",
			stats.Modified, stats.Skipped, stats.Errors)
	}

	if stats.Errors == stats.Total {
		return fmt.Errorf("all %d files failed", stats.Errors)
	}
	return nil
}
