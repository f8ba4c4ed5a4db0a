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

// Package require provides the require command for portolan.
package require

import (
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/portolan/importmap"
	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the require command.
var Cmd = &cobra.Command{
	Use:   "require <package>...",
	Short: "Add packages to the import map",
	Long: `Add packages to the import map.

Remote packages are resolved against the npm registry and downloaded into
the vendor directory. With --path, a single package maps to a local asset
instead.`,
	Example: `  # Require the latest stable version
  portolan require lodash

  # Pin a version constraint
  portolan require lodash@^4.17

  # A package subpath, typed by extension
  portolan require bootstrap/dist/css/bootstrap.min.css

  # Map a name to a local asset
  portolan require app --path ./assets/app.js --entrypoint`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().String("path", "", "Map the package to a local asset path (single package only)")
	Cmd.Flags().BoolP("entrypoint", "e", false, "Mark the packages as page entrypoints")
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}

	localPath, _ := cmd.Flags().GetString("path")
	entrypoint, _ := cmd.Flags().GetBool("entrypoint")

	if localPath != "" && len(args) > 1 {
		return fmt.Errorf("--path applies to a single package, got %d", len(args))
	}

	requests := make([]importmap.RequireOptions, 0, len(args))
	for _, spec := range args {
		name, constraint := importmap.SplitPackageSpecifier(spec)
		opts := importmap.RequireOptions{
			ImportName:   name,
			IsEntrypoint: entrypoint,
		}
		if localPath != "" {
			opts.Path = localPath
		} else {
			opts.PackageModuleSpecifier = name
			opts.Version = constraint
		}
		requests = append(requests, opts)
	}

	added, err := ws.Manager().Require(cmd.Context(), requests)
	if err != nil {
		return err
	}

	for _, entry := range added {
		if entry.IsRemotePackage() {
			fmt.Printf("added %s %s\n", entry.ImportName, entry.Remote.Version)
		} else {
			fmt.Printf("added %s -> %s\n", entry.ImportName, entry.Path)
		}
	}
	return nil
}
