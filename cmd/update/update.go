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

// Package update provides the update command for portolan.
package update

import (
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the update command.
var Cmd = &cobra.Command{
	Use:   "update [name]...",
	Short: "Re-resolve remote packages to their latest matching versions",
	Long: `Re-resolve remote packages against the registry.

Without arguments, every remote entry is updated. With names, only those
entries are updated; local entries are never touched.`,
	Example: `  # Update everything
  portolan update

  # Update one package
  portolan update lodash`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}

	updated, err := ws.Manager().Update(cmd.Context(), args)
	if err != nil {
		return err
	}

	if len(updated) == 0 {
		fmt.Println("nothing to update")
		return nil
	}
	for _, entry := range updated {
		fmt.Printf("updated %s %s\n", entry.ImportName, entry.Remote.Version)
	}
	return nil
}
