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

package asset

import (
	"embed"
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

//go:embed queries/typescript/imports.scm
var queryFiles embed.FS

// typescript grammar parses plain JavaScript as well.
var tsLanguage = ts.NewLanguage(tsTypescript.LanguageTypescript())

var tsParserPool = sync.Pool{
	New: func() any {
		parser := ts.NewParser()
		if err := parser.SetLanguage(tsLanguage); err != nil {
			panic("failed to set TypeScript language: " + err.Error())
		}
		return parser
	},
}

func getTSParser() *ts.Parser {
	return tsParserPool.Get().(*ts.Parser)
}

func putTSParser(p *ts.Parser) {
	p.Reset()
	tsParserPool.Put(p)
}

var (
	importsQuery     *ts.Query
	importsQueryOnce sync.Once
	importsQueryErr  error
)

func getImportsQuery() (*ts.Query, error) {
	importsQueryOnce.Do(func() {
		data, err := queryFiles.ReadFile("queries/typescript/imports.scm")
		if err != nil {
			importsQueryErr = fmt.Errorf("failed to read imports query: %w", err)
			return
		}
		query, qerr := ts.NewQuery(tsLanguage, string(data))
		if qerr != nil {
			importsQueryErr = fmt.Errorf("failed to parse imports query: %w", qerr)
			return
		}
		importsQuery = query
	})
	return importsQuery, importsQueryErr
}

// ModuleImport is one raw import specifier found in a JavaScript source file.
type ModuleImport struct {
	Specifier string
	IsDynamic bool
}

// ExtractImports parses JavaScript/TypeScript content and extracts all import
// specifiers. Static imports and re-exports are eager; import() calls are
// dynamic.
func ExtractImports(content []byte) ([]ModuleImport, error) {
	query, err := getImportsQuery()
	if err != nil {
		return nil, err
	}

	parser := getTSParser()
	defer putTSParser(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse content")
	}
	defer tree.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var imports []ModuleImport
	matches := cursor.Matches(query, tree.RootNode(), content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		for _, capture := range match.Captures {
			name := captureNames[capture.Index]
			text := capture.Node.Utf8Text(content)

			switch name {
			case "import.spec", "reexport.spec":
				imports = append(imports, ModuleImport{Specifier: text})
			case "dynamicImport.spec":
				imports = append(imports, ModuleImport{Specifier: text, IsDynamic: true})
			}
		}
	}

	return imports, nil
}
