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

package importmap

import "fmt"

// NotFoundError indicates a named entry is absent from the entry set.
type NotFoundError struct {
	ImportName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no import map entry named %q", e.ImportName)
}

// PathResolutionError indicates a local require path could not be resolved
// to an asset.
type PathResolutionError struct {
	Path string
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("path %q could not be resolved to an asset", e.Path)
}

// MissingAssetError indicates an entry's backing asset is absent during
// closure computation.
type MissingAssetError struct {
	Entry Entry
}

func (e *MissingAssetError) Error() string {
	if e.Entry.IsRemotePackage() {
		return fmt.Sprintf("asset for package %q (version %s) is missing; run 'portolan install' to download it",
			e.Entry.Path, e.Entry.Remote.Version)
	}
	return fmt.Sprintf("asset %q for entry %q was not found under any asset root",
		e.Entry.Path, e.Entry.ImportName)
}

// EntrypointError indicates an entrypoint name cannot be used as one: the
// entry is absent, not marked as an entrypoint, or is a remote package.
type EntrypointError struct {
	ImportName string
	Reason     string
}

func (e *EntrypointError) Error() string {
	return fmt.Sprintf("entrypoint %q %s", e.ImportName, e.Reason)
}
