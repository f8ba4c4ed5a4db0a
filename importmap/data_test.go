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

package importmap_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"bennypowers.dev/portolan/importmap"
)

func TestRawMapMarshalOrder(t *testing.T) {
	raw := importmap.NewRawMap()
	raw.Set("z", importmap.RawEntry{Path: "/assets/z.js", Type: importmap.TypeJS})
	raw.Set("a", importmap.RawEntry{Path: "/assets/a.css", Type: importmap.TypeCSS})

	out, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	// Insertion order survives, not lexical order.
	if zi, ai := strings.Index(string(out), `"z"`), strings.Index(string(out), `"a"`); zi < 0 || ai < 0 || zi > ai {
		t.Errorf("keys out of insertion order: %s", out)
	}

	parsed := importmap.NewRawMap()
	if err := json.Unmarshal(out, parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := parsed.Names(); !reflect.DeepEqual(got, []string{"z", "a"}) {
		t.Errorf("Names after round trip = %v, want [z a]", got)
	}
	z, _ := parsed.Get("z")
	if z.Path != "/assets/z.js" || z.Type != importmap.TypeJS {
		t.Errorf("z = %+v", z)
	}
}

func TestDataMarshalPreload(t *testing.T) {
	data := importmap.NewData()
	data.Set("app", importmap.DataEntry{Path: "/assets/app.js", Type: importmap.TypeJS, Preload: true})
	data.Set("lodash", importmap.DataEntry{Path: "/assets/vendor/lodash.index.js", Type: importmap.TypeJS})

	out, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"preload":true`) {
		t.Errorf("preloaded entry lost its flag: %s", s)
	}
	// preload is omitted when false.
	if strings.Count(s, "preload") != 1 {
		t.Errorf("non-preloaded entry should omit the flag: %s", s)
	}
}
