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

// Command portolan manages ES module import maps for vendorless frontends.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/portolan/cmd/generate"
	"bennypowers.dev/portolan/cmd/inject"
	"bennypowers.dev/portolan/cmd/install"
	"bennypowers.dev/portolan/cmd/remove"
	"bennypowers.dev/portolan/cmd/require"
	"bennypowers.dev/portolan/cmd/update"
	"bennypowers.dev/portolan/cmd/version"
)

var (
	cpuprofile     string
	cpuprofileFile *os.File
	rootCmd        = &cobra.Command{
		Use:   "portolan",
		Short: "Manage ES module import maps",
		Long: `portolan manages ES module import maps without a bundler.

Packages are resolved against the npm registry, downloaded into the asset
tree, and mapped for the browser together with local modules and their
import graphs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofile != "" {
				f, err := os.Create(cpuprofile)
				if err != nil {
					return fmt.Errorf("could not create CPU profile: %w", err)
				}
				cpuprofileFile = f
				if err := pprof.StartCPUProfile(f); err != nil {
					closeErr := f.Close()
					return errors.Join(
						fmt.Errorf("could not start CPU profile: %w", err),
						closeErr,
					)
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuprofileFile != nil {
				pprof.StopCPUProfile()
				if err := cpuprofileFile.Close(); err != nil {
					return fmt.Errorf("closing CPU profile: %w", err)
				}
			}
			return nil
		},
	}
)

func init() {
	// Root flags (persistent across all commands)
	rootCmd.PersistentFlags().StringP("root", "r", ".", "Project root directory")
	rootCmd.PersistentFlags().String("map", "", "Import map config file (default: importmap.json under the root)")
	rootCmd.PersistentFlags().StringSlice("asset-root", nil, "Asset root directories, relative to the project root (default: assets)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Glob patterns for logical paths to ignore")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for dumped import map artifacts")
	rootCmd.PersistentFlags().String("registry", "", "npm registry URL")
	rootCmd.PersistentFlags().String("cdn", "", "Package CDN URL")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file (default: stdout)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cpuprofile, "cpuprofile", "", "Write CPU profile to file")

	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("map", rootCmd.PersistentFlags().Lookup("map"))
	_ = viper.BindPFlag("asset-root", rootCmd.PersistentFlags().Lookup("asset-root"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("cache-dir", rootCmd.PersistentFlags().Lookup("cache-dir"))
	_ = viper.BindPFlag("registry", rootCmd.PersistentFlags().Lookup("registry"))
	_ = viper.BindPFlag("cdn", rootCmd.PersistentFlags().Lookup("cdn"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add commands
	rootCmd.AddCommand(require.Cmd)
	rootCmd.AddCommand(remove.Cmd)
	rootCmd.AddCommand(update.Cmd)
	rootCmd.AddCommand(install.Cmd)
	rootCmd.AddCommand(generate.Cmd)
	rootCmd.AddCommand(inject.Cmd)
	rootCmd.AddCommand(version.Cmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
