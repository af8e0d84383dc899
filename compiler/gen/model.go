package gen

import (
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/omgen/compiler/load"
)

// The following types and their exported methods are read by the
// artifact builders to generate the classes of one table.
type (
	// Database holds the tables of one schema and its defaults.
	Database struct {
		// Name of the database (connection name in the runtime).
		Name string
		// Package is the default package of the tables.
		Package string
		// Namespace is the default namespace of the tables.
		Namespace string
		// BaseClass is the default parent class of the object classes.
		BaseClass string
		// BasePeer is the default parent class of the peer classes.
		BasePeer string
		// Tables in declaration order.
		Tables []*Table
		tables map[string]*Table
	}

	// Table represents one table of the schema, its columns and relations.
	Table struct {
		db      *Database
		phpName string
		// Name is the SQL name of the table.
		Name string
		// Package, Namespace, BaseClass and BasePeer override the
		// database defaults when set.
		Package   string
		Namespace string
		BaseClass string
		BasePeer  string
		// Description of the table.
		Description string
		// Columns in declaration order.
		Columns []*Column
		columns map[string]*Column
		// ForeignKeys are the outgoing foreign keys of the table.
		ForeignKeys []*ForeignKey
		referrers   []*ForeignKey
		// Behaviors in attachment order.
		Behaviors []Behavior
	}

	// Column holds the information of a table column.
	Column struct {
		table   *Table
		phpName string
		// Name is the SQL name of the column.
		Name string
		// PeerName overrides the name used for the peer constant.
		PeerName string
		// Type is the upper-cased schema type (INTEGER, VARCHAR, ...).
		Type          string
		Size          int
		PrimaryKey    bool
		Required      bool
		AutoIncrement bool
		Default       string
		Description   string
	}

	// ForeignKey maps local columns of its table to columns of another (or
	// the same) table.
	ForeignKey struct {
		table *Table
		// Name of the constraint, may be empty.
		Name string
		// ForeignTableName is the SQL name of the referenced table.
		ForeignTableName string
		// PhpName overrides the name of the forward relation accessor.
		PhpName string
		// RefPhpName overrides the name of the reverse relation accessor.
		RefPhpName string
		// DefaultJoin overrides the join type of the relation.
		DefaultJoin string
		OnDelete    string
		OnUpdate    string
		// References is the ordered local to foreign column mapping.
		References []Reference
	}

	// Reference maps one local column name to one foreign column name.
	Reference struct {
		Local   string
		Foreign string
	}
)

// TableModifier is implemented by behaviors that alter the table they are
// attached to (e.g. by adding columns) before any artifact is built.
type TableModifier interface {
	ModifyTable(t *Table) error
}

// NewDatabase creates the schema model from a loaded database definition.
func NewDatabase(c *Config, def *load.Database) (*Database, error) {
	if def == nil {
		return nil, NewArgumentError("def", "no database definition specified")
	}
	db := &Database{
		Name:      def.Name,
		Package:   def.Package,
		Namespace: def.Namespace,
		BaseClass: def.BaseClass,
		BasePeer:  def.BasePeer,
		tables:    make(map[string]*Table, len(def.Tables)),
	}
	for _, td := range def.Tables {
		t, err := newTable(db, td)
		if err != nil {
			return nil, err
		}
		if _, ok := db.tables[t.Name]; ok {
			return nil, NewSchemaError(t.Name, "", "table redeclared", nil)
		}
		db.tables[t.Name] = t
		db.Tables = append(db.Tables, t)
	}
	for _, t := range db.Tables {
		for _, fk := range t.ForeignKeys {
			ft, ok := db.Table(fk.ForeignTableName)
			if !ok {
				return nil, NewSchemaError(t.Name, "", fmt.Sprintf("foreign table %q does not exist", fk.ForeignTableName), nil)
			}
			ft.referrers = append(ft.referrers, fk)
		}
	}
	if err := db.attachBehaviors(c, def); err != nil {
		return nil, err
	}
	return db, nil
}

func newTable(db *Database, def *load.Table) (*Table, error) {
	if def.Name == "" {
		return nil, NewSchemaError("", "", "table name cannot be empty", nil)
	}
	t := &Table{
		db:          db,
		Name:        def.Name,
		phpName:     def.PhpName,
		Package:     def.Package,
		Namespace:   def.Namespace,
		BaseClass:   def.BaseClass,
		BasePeer:    def.BasePeer,
		Description: def.Description,
		columns:     make(map[string]*Column, len(def.Columns)),
	}
	for _, cd := range def.Columns {
		if err := t.AddColumn(&Column{
			Name:          cd.Name,
			phpName:       cd.PhpName,
			PeerName:      cd.PeerName,
			Type:          cd.Type,
			Size:          cd.Size,
			PrimaryKey:    cd.PrimaryKey,
			Required:      cd.Required,
			AutoIncrement: cd.AutoIncrement,
			Default:       cd.Default,
			Description:   cd.Description,
		}); err != nil {
			return nil, err
		}
	}
	for _, fd := range def.ForeignKeys {
		if len(fd.References) == 0 {
			return nil, NewSchemaError(t.Name, "", fmt.Sprintf("foreign key to %q has no column mapping", fd.ForeignTable), nil)
		}
		fk := &ForeignKey{
			table:            t,
			Name:             fd.Name,
			ForeignTableName: fd.ForeignTable,
			PhpName:          fd.PhpName,
			RefPhpName:       fd.RefPhpName,
			DefaultJoin:      fd.DefaultJoin,
			OnDelete:         fd.OnDelete,
			OnUpdate:         fd.OnUpdate,
		}
		for _, r := range fd.References {
			fk.References = append(fk.References, Reference{Local: r.Local, Foreign: r.Foreign})
		}
		t.ForeignKeys = append(t.ForeignKeys, fk)
	}
	return t, nil
}

// attachBehaviors resolves the behaviors of every table. Database behaviors
// are attached after the table's own, unless the table already has one with
// the same name.
func (d *Database) attachBehaviors(c *Config, def *load.Database) error {
	for i, t := range d.Tables {
		defs := slices.Clone(def.Tables[i].Behaviors)
		for _, bd := range def.Behaviors {
			if !slices.ContainsFunc(defs, func(x *load.Behavior) bool { return x.Name == bd.Name }) {
				defs = append(defs, bd)
			}
		}
		if len(defs) == 0 {
			continue
		}
		if c == nil || c.Behaviors == nil {
			return NewConfigError("Behaviors", nil, fmt.Sprintf("table %q declares behaviors but no behavior factory is configured", t.Name))
		}
		for _, bd := range defs {
			b, err := c.Behaviors(bd, t)
			if err != nil {
				return NewSchemaError(t.Name, "", fmt.Sprintf("behavior %q", bd.Name), err)
			}
			t.Behaviors = append(t.Behaviors, b)
		}
	}
	for _, t := range d.Tables {
		for _, b := range t.Behaviors {
			if m, ok := b.(TableModifier); ok {
				if err := m.ModifyTable(t); err != nil {
					return NewSchemaError(t.Name, "", fmt.Sprintf("behavior %q", b.Name()), err)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// Database methods
// =============================================================================

// Table returns the table with the given SQL name.
func (d *Database) Table(name string) (*Table, bool) {
	t, ok := d.tables[name]
	return t, ok
}

// =============================================================================
// Table methods
// =============================================================================

// Database returns the database holding the table.
func (t *Table) Database() *Database { return t.db }

// PhpName returns the class-style name of the table.
func (t *Table) PhpName() string {
	if t.phpName != "" {
		return t.phpName
	}
	return PhpName(t.Name)
}

// AddColumn appends a column to the table. It fails if a column with the
// same name already exists.
func (t *Table) AddColumn(c *Column) error {
	if c.Name == "" {
		return NewSchemaError(t.Name, "", "column name cannot be empty", nil)
	}
	if _, ok := t.columns[c.Name]; ok {
		return NewSchemaError(t.Name, c.Name, "column redeclared", nil)
	}
	c.table = t
	c.Type = strings.ToUpper(c.Type)
	if c.Type == "" {
		c.Type = "VARCHAR"
	}
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return nil
}

// Column returns the column with the given SQL name.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columns[name]
	return c, ok
}

// HasColumn reports if the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// PrimaryKey returns the primary-key columns of the table.
func (t *Table) PrimaryKey() []*Column {
	var pk []*Column
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// HasPrimaryKey reports if the table has at least one primary-key column.
func (t *Table) HasPrimaryKey() bool {
	return slices.ContainsFunc(t.Columns, func(c *Column) bool { return c.PrimaryKey })
}

// ForeignKeysReferencingTable returns the foreign keys of this table that
// point to the table with the given name, in declaration order.
func (t *Table) ForeignKeysReferencingTable(name string) []*ForeignKey {
	var fks []*ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.ForeignTableName == name {
			fks = append(fks, fk)
		}
	}
	return fks
}

// Referrers returns the foreign keys of other tables (or this one) that
// reference this table.
func (t *Table) Referrers() []*ForeignKey { return t.referrers }

// HasBehavior reports if a behavior with the given name is attached.
func (t *Table) HasBehavior(name string) bool {
	return slices.ContainsFunc(t.Behaviors, func(b Behavior) bool { return b.Name() == name })
}

// =============================================================================
// Column methods
// =============================================================================

// Table returns the table holding the column.
func (c *Column) Table() *Table { return c.table }

// PhpName returns the class-style name of the column, used in accessor names.
func (c *Column) PhpName() string {
	if c.phpName != "" {
		return c.phpName
	}
	return PhpName(c.Name)
}

// SetPhpName overrides the class-style name of the column.
func (c *Column) SetPhpName(name string) { c.phpName = name }

// ConstantName returns the constant token of the column (e.g. AUTHOR_ID).
func (c *Column) ConstantName() string {
	if c.PeerName != "" {
		return ConstantName(c.PeerName)
	}
	return ConstantName(c.Name)
}

// PhpType returns the PHP type of the column values.
func (c *Column) PhpType() string {
	switch c.Type {
	case "INTEGER", "SMALLINT", "TINYINT":
		return "int"
	case "BOOLEAN":
		return "boolean"
	case "FLOAT", "DOUBLE", "REAL":
		return "double"
	case "BLOB", "VARBINARY", "LONGVARBINARY":
		return "resource"
	default:
		return "string"
	}
}

// IsTemporal reports if the column holds a date or a time.
func (c *Column) IsTemporal() bool {
	switch c.Type {
	case "DATE", "TIME", "TIMESTAMP":
		return true
	}
	return false
}

// =============================================================================
// ForeignKey methods
// =============================================================================

// Table returns the table holding the foreign key.
func (f *ForeignKey) Table() *Table { return f.table }

// TableName returns the SQL name of the table holding the foreign key.
func (f *ForeignKey) TableName() string { return f.table.Name }

// ForeignTable returns the referenced table.
func (f *ForeignKey) ForeignTable() *Table {
	t, _ := f.table.db.Table(f.ForeignTableName)
	return t
}

// IsSelfReference reports if the foreign key references its own table.
func (f *ForeignKey) IsSelfReference() bool {
	return f.ForeignTableName == f.table.Name
}

// LocalColumnNames returns the local column names in mapping order.
func (f *ForeignKey) LocalColumnNames() []string {
	names := make([]string, len(f.References))
	for i, r := range f.References {
		names[i] = r.Local
	}
	return names
}

// ForeignColumnNames returns the foreign column names in mapping order.
func (f *ForeignKey) ForeignColumnNames() []string {
	names := make([]string, len(f.References))
	for i, r := range f.References {
		names[i] = r.Foreign
	}
	return names
}

// LocalColumnsRequired reports if all the local columns are required.
func (f *ForeignKey) LocalColumnsRequired() bool {
	for _, r := range f.References {
		c, ok := f.table.Column(r.Local)
		if !ok || !c.Required {
			return false
		}
	}
	return true
}
