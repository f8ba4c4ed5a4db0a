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
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// RawEntry is one computed raw import mapping: the public path an import
// name resolves to and its asset type.
type RawEntry struct {
	Path string    `json:"path"`
	Type EntryType `json:"type"`
}

// RawMap is the ordered result of the implicit-dependency closure. It
// marshals as a JSON object whose key order is the map's insertion order,
// matching the dumped cache artifact format.
type RawMap struct {
	names   []string
	entries map[string]RawEntry
}

// NewRawMap creates an empty raw map.
func NewRawMap() *RawMap {
	return &RawMap{entries: make(map[string]RawEntry)}
}

// Set inserts or replaces the raw entry for name, keeping the original
// position on replace.
func (m *RawMap) Set(name string, entry RawEntry) {
	if _, exists := m.entries[name]; !exists {
		m.names = append(m.names, name)
	}
	m.entries[name] = entry
}

// Get returns the raw entry for name.
func (m *RawMap) Get(name string) (RawEntry, bool) {
	entry, ok := m.entries[name]
	return entry, ok
}

// Has reports whether name is present.
func (m *RawMap) Has(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Delete removes name from the map.
func (m *RawMap) Delete(name string) {
	if _, ok := m.entries[name]; !ok {
		return
	}
	delete(m.entries, name)
	m.names = slices.DeleteFunc(m.names, func(n string) bool { return n == name })
}

// Names returns the import names in insertion order.
func (m *RawMap) Names() []string {
	return slices.Clone(m.names)
}

// Len returns the number of entries.
func (m *RawMap) Len() int {
	return len(m.names)
}

// MarshalJSON implements json.Marshaler, emitting keys in insertion order.
func (m *RawMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range m.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(m.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving the object's key
// order.
func (m *RawMap) UnmarshalJSON(data []byte) error {
	m.names = nil
	m.entries = make(map[string]RawEntry)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var entry RawEntry
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		m.Set(name, entry)
	}
	_, err = dec.Token() // closing brace
	return err
}

// DataEntry is one renderer-facing import mapping. Preload marks modules
// that must load before their entrypoint executes.
type DataEntry struct {
	Path    string    `json:"path"`
	Type    EntryType `json:"type"`
	Preload bool      `json:"preload,omitempty"`
}

// Data is the preload-ordered import map consumed by the page renderer.
// Preloaded entries sort first, in entrypoint request order.
type Data struct {
	names   []string
	entries map[string]DataEntry
}

// NewData creates an empty data map.
func NewData() *Data {
	return &Data{entries: make(map[string]DataEntry)}
}

// Set inserts or replaces the entry for name.
func (d *Data) Set(name string, entry DataEntry) {
	if _, exists := d.entries[name]; !exists {
		d.names = append(d.names, name)
	}
	d.entries[name] = entry
}

// Get returns the entry for name.
func (d *Data) Get(name string) (DataEntry, bool) {
	entry, ok := d.entries[name]
	return entry, ok
}

// Has reports whether name is present.
func (d *Data) Has(name string) bool {
	_, ok := d.entries[name]
	return ok
}

// Names returns the import names in preload order.
func (d *Data) Names() []string {
	return slices.Clone(d.names)
}

// Len returns the number of entries.
func (d *Data) Len() int {
	return len(d.names)
}

// MarshalJSON implements json.Marshaler, emitting keys in preload order.
func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(d.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
