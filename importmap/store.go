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

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/portolan/fs"
)

// Store persists the entry set. The configuration is loaded once per
// reconciliation and written back once; there is no partial persistence.
type Store interface {
	Load() (*Entries, error)
	Save(*Entries) error
}

// DefaultConfigFile is the default entry set location, relative to the
// project root.
const DefaultConfigFile = "importmap.json"

// storedEntry is the JSON representation of one entry.
type storedEntry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Type       EntryType `json:"type"`
	Entrypoint bool      `json:"entrypoint,omitempty"`
	Version    string    `json:"version,omitempty"`
	Package    string    `json:"package,omitempty"`
}

// JSONStore persists the entry set as an ordered JSON array.
type JSONStore struct {
	fs   fs.FileSystem
	path string
}

// NewJSONStore creates a store reading and writing the file at path.
func NewJSONStore(filesystem fs.FileSystem, path string) *JSONStore {
	return &JSONStore{fs: filesystem, path: path}
}

// Load implements Store. A missing file yields an empty entry set.
func (s *JSONStore) Load() (*Entries, error) {
	if !s.fs.Exists(s.path) {
		return NewEntries(), nil
	}

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import map config %s: %w", s.path, err)
	}

	var stored []storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse import map config %s: %w", s.path, err)
	}

	entries := NewEntries()
	for _, se := range stored {
		entry := Entry{
			ImportName:   se.Name,
			Path:         se.Path,
			Type:         se.Type,
			IsEntrypoint: se.Entrypoint,
		}
		if entry.Type == "" {
			entry.Type = TypeJS
		}
		if se.Package != "" || se.Version != "" {
			entry.Remote = &RemoteSource{
				Version:                se.Version,
				PackageModuleSpecifier: se.Package,
			}
		}
		entries.Add(entry)
	}
	return entries, nil
}

// Save implements Store. The file is replaced atomically via a temp file
// and rename.
func (s *JSONStore) Save(entries *Entries) error {
	stored := make([]storedEntry, 0, entries.Len())
	for _, entry := range entries.All() {
		se := storedEntry{
			Name:       entry.ImportName,
			Path:       entry.Path,
			Type:       entry.Type,
			Entrypoint: entry.IsEntrypoint,
		}
		if entry.Remote != nil {
			se.Version = entry.Remote.Version
			se.Package = entry.Remote.PackageModuleSpecifier
		}
		stored = append(stored, se)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode import map config: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write import map config: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace import map config: %w", err)
	}
	return nil
}
