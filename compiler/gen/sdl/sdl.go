// Package sdl exports the tables of a database and their relations as a
// GraphQL schema document.
package sdl

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/syssam/omgen/compiler/gen"
)

// DateTime is the custom scalar used for temporal columns.
const DateTime = "DateTime"

// prelude declares the directives and scalars every document uses.
const prelude = `directive @table(name: String!) on OBJECT
directive @column(name: String!) on FIELD_DEFINITION

"A date, time or timestamp value."
scalar DateTime
`

// Exporter renders the SDL document of a database. It implements
// gen.Extension and is gated by the "sdl" feature.
type Exporter struct {
	pluralizer gen.Pluralizer
}

// New returns an exporter naming the one-to-many fields with p.
func New(p gen.Pluralizer) *Exporter {
	if p == nil {
		p = gen.NewInflectPluralizer()
	}
	return &Exporter{pluralizer: p}
}

// Feature implements gen.Extension.
func (*Exporter) Feature() string { return gen.FeatureSDL.Name }

// Generate implements gen.Extension.
func (e *Exporter) Generate(db *gen.Database) (string, []byte, error) {
	doc, err := e.Document(db)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)
	return gen.SDLFile, buf.Bytes(), nil
}

// Document returns the schema document of db: one object type per table,
// with a field per column and per relation.
func (e *Exporter) Document(db *gen.Database) (*ast.SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: gen.SDLFile, Input: prelude})
	if err != nil {
		return nil, err
	}
	for _, t := range db.Tables {
		def, err := e.object(t)
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return doc, nil
}

func (e *Exporter) object(t *gen.Table) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.Object,
		Name:        t.PhpName(),
		Description: t.Description,
		Directives:  ast.DirectiveList{nameArgument("table", t.Name)},
	}
	add := func(f *ast.FieldDefinition) error {
		if def.Fields.ForName(f.Name) != nil {
			return gen.NewSchemaError(t.Name, "", fmt.Sprintf("field %s.%s redeclared", def.Name, f.Name), nil)
		}
		def.Fields = append(def.Fields, f)
		return nil
	}
	pk := t.PrimaryKey()
	for _, c := range t.Columns {
		typ := Scalar(c)
		if len(pk) == 1 && pk[0] == c {
			typ = "ID"
		}
		if err := add(&ast.FieldDefinition{
			Name:        lowerFirst(c.PhpName()),
			Description: c.Description,
			Type:        namedType(typ, c.Required || c.PrimaryKey),
			Directives:  ast.DirectiveList{nameArgument("column", c.Name)},
		}); err != nil {
			return nil, err
		}
	}
	for _, fk := range t.ForeignKeys {
		name, err := gen.ForeignKeyName(fk, false, e.pluralizer)
		if err != nil {
			return nil, err
		}
		if err := add(&ast.FieldDefinition{
			Name: lowerFirst(name),
			Type: namedType(fk.ForeignTable().PhpName(), fk.LocalColumnsRequired()),
		}); err != nil {
			return nil, err
		}
	}
	for _, fk := range t.Referrers() {
		name, err := gen.ReferrerName(fk, true, e.pluralizer)
		if err != nil {
			return nil, err
		}
		if err := add(&ast.FieldDefinition{
			Name: lowerFirst(name),
			Type: ast.NonNullListType(ast.NonNullNamedType(fk.Table().PhpName(), nil), nil),
		}); err != nil {
			return nil, err
		}
	}
	return def, nil
}

// Scalar returns the GraphQL scalar of a column type.
func Scalar(c *gen.Column) string {
	switch c.Type {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT":
		return "Int"
	case "REAL", "FLOAT", "DOUBLE", "DECIMAL", "NUMERIC":
		return "Float"
	case "BOOLEAN":
		return "Boolean"
	}
	if c.IsTemporal() {
		return DateTime
	}
	return "String"
}

func namedType(name string, required bool) *ast.Type {
	if required {
		return ast.NonNullNamedType(name, nil)
	}
	return ast.NamedType(name, nil)
}

func nameArgument(directive, value string) *ast.Directive {
	return &ast.Directive{
		Name: directive,
		Arguments: ast.ArgumentList{
			{Name: "name", Value: &ast.Value{Kind: ast.StringValue, Raw: value}},
		},
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
