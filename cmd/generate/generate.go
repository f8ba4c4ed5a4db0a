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

// Package generate provides the generate command for portolan.
package generate

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/portolan/inject"
	"bennypowers.dev/portolan/internal/output"
	"bennypowers.dev/portolan/internal/workspace"
)

// Cmd is the generate cobra command that computes import map data from the
// configured entries and their import graphs.
var Cmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate import map data from the configured entries",
	Long: `Generate import map data from the configured entries.

Walks the import graph of every entry, adds implicit dependencies, and for
each --entrypoint emits its eager import chain first, marked for preload.`,
	Example: `  # The full closure, no preloads
  portolan generate

  # Preload-ordered data for a page
  portolan generate --entrypoint app --entrypoint admin

  # As an HTML snippet
  portolan generate --entrypoint app --format html

  # Write cache artifacts for later runs
  portolan generate --entrypoint app --dump --cache-dir var/importmap`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringSliceP("entrypoint", "e", nil, "Entrypoint names, in page order (can be repeated)")
	Cmd.Flags().StringP("format", "f", "json", "Output format (json, html)")
	Cmd.Flags().Bool("dump", false, "Write cache artifacts to --cache-dir instead of printing")

	_ = viper.BindPFlag("entrypoint", Cmd.Flags().Lookup("entrypoint"))
	_ = viper.BindPFlag("format", Cmd.Flags().Lookup("format"))
}

func run(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}

	format := viper.GetString("format")
	if format != "json" && format != "html" {
		return fmt.Errorf("invalid format %q: must be 'json' or 'html'", format)
	}

	entrypoints := viper.GetStringSlice("entrypoint")
	generator := ws.Generator()

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		return generator.Dump(entrypoints)
	}

	data, err := generator.ImportMapData(entrypoints)
	if err != nil {
		return err
	}

	switch format {
	case "html":
		snippet, err := inject.Snippet(data)
		if err != nil {
			return err
		}
		return output.Write(ws.FS, snippet)
	default:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		return output.Write(ws.FS, string(out))
	}
}
