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

import "slices"

// Entries is the ordered, name-keyed entry collection that forms the
// authoritative import map configuration. Insertion order is preserved and
// observable in generated output.
type Entries struct {
	names  []string
	byName map[string]Entry
}

// NewEntries creates an empty entry set.
func NewEntries(entries ...Entry) *Entries {
	e := &Entries{byName: make(map[string]Entry)}
	for _, entry := range entries {
		e.Add(entry)
	}
	return e
}

// Add inserts an entry, replacing any existing entry with the same import
// name in place.
func (e *Entries) Add(entry Entry) {
	if _, exists := e.byName[entry.ImportName]; !exists {
		e.names = append(e.names, entry.ImportName)
	}
	e.byName[entry.ImportName] = entry
}

// Get returns the entry for name.
func (e *Entries) Get(name string) (Entry, bool) {
	entry, ok := e.byName[name]
	return entry, ok
}

// Has reports whether an entry exists for name.
func (e *Entries) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// Remove deletes the entry for name, reporting whether it existed.
func (e *Entries) Remove(name string) bool {
	if _, ok := e.byName[name]; !ok {
		return false
	}
	delete(e.byName, name)
	e.names = slices.DeleteFunc(e.names, func(n string) bool { return n == name })
	return true
}

// Len returns the number of entries.
func (e *Entries) Len() int {
	return len(e.names)
}

// Names returns the import names in insertion order.
func (e *Entries) Names() []string {
	return slices.Clone(e.names)
}

// All returns the entries in insertion order.
func (e *Entries) All() []Entry {
	result := make([]Entry, 0, len(e.names))
	for _, name := range e.names {
		result = append(result, e.byName[name])
	}
	return result
}
