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

// Package install provides the install command for portolan.
package install

import (
	"github.com/spf13/cobra"

	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the install command.
var Cmd = &cobra.Command{
	Use:   "install",
	Short: "Download missing vendor files for remote packages",
	Long: `Download missing vendor files for remote packages.

Checks every remote entry in the import map and downloads any whose vendor
file is absent, for example after a fresh clone. Already-downloaded files
are left alone.`,
	Example: `  portolan install`,
	Args:    cobra.NoArgs,
	RunE:    run,
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	return ws.Downloader().DownloadPackages(cmd.Context())
}
