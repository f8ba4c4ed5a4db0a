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

// Package inject renders computed import map data as HTML and writes it
// into HTML documents: an importmap script tag, modulepreload links for
// preloaded JavaScript, and stylesheet links for preloaded CSS.
package inject

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"bennypowers.dev/portolan/importmap"
)

// managedAttr marks nodes portolan inserted, so repeated injections replace
// rather than accumulate.
const managedAttr = "data-portolan"

// importsJSON builds the importmap script payload: JavaScript entries only,
// since browsers resolve only module specifiers through the map. Entries
// keep the data's order rather than the sorted order encoding/json gives
// maps.
func importsJSON(data *importmap.Data) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n  \"imports\": {")
	first := true
	for _, name := range data.Names() {
		entry, _ := data.Get(name)
		if entry.Type != importmap.TypeJS {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return "", err
		}
		value, err := json.Marshal(entry.Path)
		if err != nil {
			return "", err
		}
		buf.WriteString("\n    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
	}
	if !first {
		buf.WriteString("\n  ")
	}
	buf.WriteString("}\n}")
	return buf.String(), nil
}

// Snippet renders the import map data as an HTML fragment suitable for
// direct inclusion in a document head.
func Snippet(data *importmap.Data) (string, error) {
	payload, err := importsJSON(data)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<script type=\"importmap\">\n")
	b.WriteString(payload)
	b.WriteString("\n</script>\n")

	for _, name := range data.Names() {
		entry, _ := data.Get(name)
		if !entry.Preload {
			continue
		}
		switch entry.Type {
		case importmap.TypeCSS:
			fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(entry.Path))
		default:
			fmt.Fprintf(&b, "<link rel=\"modulepreload\" href=\"%s\">\n", html.EscapeString(entry.Path))
		}
	}
	return b.String(), nil
}

// IntoDocument writes the import map data into an HTML document, replacing
// any importmap script or portolan-managed links already present. The
// document is re-rendered by the HTML parser, so formatting is normalized.
func IntoDocument(content []byte, data *importmap.Data) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	head := findElement(doc, atom.Head)
	if head == nil {
		return nil, fmt.Errorf("could not find insertion point (no <head> tag)")
	}

	removeManaged(head)

	payload, err := importsJSON(data)
	if err != nil {
		return nil, err
	}

	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: "type", Val: "importmap"},
			{Key: managedAttr},
		},
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: "\n" + payload + "\n"})
	head.AppendChild(script)

	for _, name := range data.Names() {
		entry, _ := data.Get(name)
		if !entry.Preload {
			continue
		}
		rel := "modulepreload"
		if entry.Type == importmap.TypeCSS {
			rel = "stylesheet"
		}
		head.AppendChild(&html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Link,
			Data:     "link",
			Attr: []html.Attribute{
				{Key: "rel", Val: rel},
				{Key: "href", Val: entry.Path},
				{Key: managedAttr},
			},
		})
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// findElement returns the first element with the given atom, depth first.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// removeManaged deletes importmap scripts and portolan-managed links from
// the subtree rooted at n.
func removeManaged(n *html.Node) {
	var c *html.Node
	for child := n.FirstChild; child != nil; child = c {
		c = child.NextSibling
		removeManaged(child)
		if isManaged(child) {
			n.RemoveChild(child)
		}
	}
}

func isManaged(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	isImportMapScript := false
	for _, attr := range n.Attr {
		if attr.Key == managedAttr {
			return true
		}
		if n.DataAtom == atom.Script && attr.Key == "type" && attr.Val == "importmap" {
			isImportMapScript = true
		}
	}
	return isImportMapScript
}
