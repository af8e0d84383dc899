package load

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
)

// Dialects supported by Inspect.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Open returns the atlas driver for the given dialect on top of db.
func Open(dialect string, db schema.ExecQuerier) (migrate.Driver, error) {
	switch dialect {
	case MySQL:
		return mysql.Open(db)
	case Postgres:
		return postgres.Open(db)
	case SQLite:
		return sqlite.Open(db)
	default:
		return nil, fmt.Errorf("load: unsupported dialect %q", dialect)
	}
}

// Inspect reverse-engineers the schema named schemaName of a live database
// into a loaded Database called name. An empty schemaName inspects the schema
// the connection is attached to.
func Inspect(ctx context.Context, dialect string, db schema.ExecQuerier, name, schemaName string) (*Database, error) {
	drv, err := Open(dialect, db)
	if err != nil {
		return nil, fmt.Errorf("load: open %s driver: %w", dialect, err)
	}
	s, err := drv.InspectSchema(ctx, schemaName, nil)
	if err != nil {
		return nil, fmt.Errorf("load: inspect schema %q: %w", schemaName, err)
	}
	return FromAtlas(name, s), nil
}

// FromAtlas converts an inspected atlas schema to a loaded Database.
func FromAtlas(name string, s *schema.Schema) *Database {
	db := &Database{Name: name}
	for _, t := range s.Tables {
		db.Tables = append(db.Tables, fromAtlasTable(t))
	}
	return db
}

func fromAtlasTable(t *schema.Table) *Table {
	nt := &Table{Name: t.Name}
	for _, c := range t.Columns {
		nc := &Column{
			Name:          c.Name,
			PrimaryKey:    isPrimaryKey(t, c),
			AutoIncrement: isAutoIncrement(c),
		}
		if c.Type != nil {
			nc.Type, nc.Size = columnType(c.Type.Type)
			nc.Required = !c.Type.Null
		}
		if lit, ok := c.Default.(*schema.Literal); ok {
			nc.Default = strings.Trim(lit.V, `'"`)
		}
		nt.Columns = append(nt.Columns, nc)
	}
	for _, fk := range t.ForeignKeys {
		nfk := &ForeignKey{
			Name:     fk.Symbol,
			OnDelete: string(fk.OnDelete),
			OnUpdate: string(fk.OnUpdate),
		}
		if fk.RefTable != nil {
			nfk.ForeignTable = fk.RefTable.Name
		}
		for i, c := range fk.Columns {
			if i >= len(fk.RefColumns) {
				break
			}
			nfk.References = append(nfk.References, &Reference{Local: c.Name, Foreign: fk.RefColumns[i].Name})
		}
		nt.ForeignKeys = append(nt.ForeignKeys, nfk)
	}
	return nt
}

func isPrimaryKey(t *schema.Table, c *schema.Column) bool {
	if t.PrimaryKey == nil {
		return false
	}
	return slices.ContainsFunc(t.PrimaryKey.Parts, func(p *schema.IndexPart) bool {
		return p.C != nil && p.C.Name == c.Name
	})
}

func isAutoIncrement(c *schema.Column) bool {
	for _, a := range c.Attrs {
		switch a.(type) {
		case *mysql.AutoIncrement, *sqlite.AutoIncrement, *postgres.Identity:
			return true
		}
	}
	return false
}

// columnType maps an inspected column type to a schema column type and size.
func columnType(t schema.Type) (string, int) {
	switch t := t.(type) {
	case *schema.IntegerType:
		switch strings.ToLower(t.T) {
		case "bigint", "int8":
			return "BIGINT", 0
		case "smallint", "int2":
			return "SMALLINT", 0
		case "tinyint":
			return "TINYINT", 0
		default:
			return "INTEGER", 0
		}
	case *schema.BoolType:
		return "BOOLEAN", 0
	case *schema.StringType:
		if strings.Contains(strings.ToLower(t.T), "text") {
			return "LONGVARCHAR", 0
		}
		if strings.EqualFold(t.T, "char") {
			return "CHAR", t.Size
		}
		return "VARCHAR", t.Size
	case *schema.TimeType:
		switch strings.ToLower(t.T) {
		case "date":
			return "DATE", 0
		case "time":
			return "TIME", 0
		default:
			return "TIMESTAMP", 0
		}
	case *schema.FloatType:
		if strings.EqualFold(t.T, "real") || strings.EqualFold(t.T, "float") {
			return "FLOAT", 0
		}
		return "DOUBLE", 0
	case *schema.DecimalType:
		return "DECIMAL", t.Precision
	case *schema.BinaryType:
		return "BLOB", 0
	case *schema.EnumType:
		return "ENUM", 0
	case *schema.JSONType:
		return "LONGVARCHAR", 0
	default:
		return "VARCHAR", 0
	}
}
