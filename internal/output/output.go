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

// Package output provides shared output utilities for portolan CLI commands.
package output

import (
	"fmt"

	"github.com/spf13/viper"

	"bennypowers.dev/portolan/fs"
)

// Write sends content to stdout or, if viper's "output" flag is set, to
// that file.
func Write(osfs fs.FileSystem, content string) error {
	if outputPath := viper.GetString("output"); outputPath != "" {
		return osfs.WriteFile(outputPath, []byte(content+"\n"), 0644)
	}
	fmt.Println(content)
	return nil
}
