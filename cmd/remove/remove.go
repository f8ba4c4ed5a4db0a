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

// Package remove provides the remove command for portolan.
package remove

import (
	"fmt"

	"github.com/spf13/cobra"

	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the remove command.
var Cmd = &cobra.Command{
	Use:   "remove <name>...",
	Short: "Remove entries from the import map",
	Long: `Remove entries from the import map.

Downloaded vendor files belonging to removed remote entries are deleted.
A name not present in the import map fails the whole operation.`,
	Example: `  portolan remove lodash
  portolan remove lodash @lit/reactive-element`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}

	if err := ws.Manager().Remove(cmd.Context(), args); err != nil {
		return err
	}

	for _, name := range args {
		fmt.Printf("removed %s\n", name)
	}
	return nil
}
