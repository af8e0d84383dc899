package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/omgen/compiler/load"
)

const bookstore = `
name: bookstore
package: bookstore
namespace: Bookstore\Model
tables:
  - name: author
    columns:
      - {name: id, type: integer, primaryKey: true, autoIncrement: true, required: true}
      - {name: first_name, size: 128}
  - name: book
    columns:
      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true, required: true}
      - {name: title, type: VARCHAR, size: 255, required: true}
      - {name: author_id, type: INTEGER, required: true}
      - {name: editor_id, type: INTEGER}
    foreignKeys:
      - foreignTable: author
        references:
          - {local: author_id, foreign: id}
      - foreignTable: author
        references:
          - {local: editor_id, foreign: id}
`

// testBehavior is a configurable Behavior.
type testBehavior struct {
	name   string
	mods   map[ModifierCategory]*Modifier
	modify func(*Table) error
}

func (b *testBehavior) Name() string { return b.name }

func (b *testBehavior) Modifier(c ModifierCategory) *Modifier { return b.mods[c] }

func (b *testBehavior) ModifyTable(t *Table) error {
	if b.modify == nil {
		return nil
	}
	return b.modify(t)
}

func parseDef(t *testing.T, src string) *load.Database {
	t.Helper()
	def, err := load.UnmarshalDatabase([]byte(src), load.FormatYAML)
	require.NoError(t, err)
	return def
}

func testDatabase(t *testing.T, src string, opts ...Option) (*Config, *Database) {
	t.Helper()
	c, err := NewConfig(opts...)
	require.NoError(t, err)
	db, err := NewDatabase(c, parseDef(t, src))
	require.NoError(t, err)
	return c, db
}

func testTable(t *testing.T, db *Database, name string) *Table {
	t.Helper()
	tbl, ok := db.Table(name)
	require.True(t, ok, "table %s", name)
	return tbl
}

func TestNewDatabase(t *testing.T) {
	_, db := testDatabase(t, bookstore)
	require.Len(t, db.Tables, 2)
	assert.Equal(t, "bookstore", db.Name)
	assert.Equal(t, `Bookstore\Model`, db.Namespace)

	author := testTable(t, db, "author")
	assert.Equal(t, "Author", author.PhpName())
	assert.Same(t, db, author.Database())
	id, ok := author.Column("id")
	require.True(t, ok)
	assert.Equal(t, "INTEGER", id.Type)
	first, ok := author.Column("first_name")
	require.True(t, ok)
	assert.Equal(t, "VARCHAR", first.Type)
	assert.Equal(t, "FirstName", first.PhpName())
	assert.Same(t, author, first.Table())

	book := testTable(t, db, "book")
	require.Len(t, book.ForeignKeys, 2)
	refs := author.Referrers()
	require.Len(t, refs, 2)
	assert.Same(t, book.ForeignKeys[0], refs[0])
	assert.Same(t, book.ForeignKeys[1], refs[1])
	assert.Same(t, author, refs[0].ForeignTable())
	assert.Equal(t, "book", refs[0].TableName())
	assert.Equal(t, []string{"editor_id"}, refs[1].LocalColumnNames())
	assert.Equal(t, []string{"id"}, refs[1].ForeignColumnNames())
	assert.True(t, refs[0].LocalColumnsRequired())
	assert.False(t, refs[1].LocalColumnsRequired())
	assert.Len(t, book.ForeignKeysReferencingTable("author"), 2)
	assert.Empty(t, author.ForeignKeysReferencingTable("book"))
	assert.Empty(t, book.Referrers())
}

func TestNewDatabaseErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(error) bool
	}{
		{
			name: "duplicate table",
			src: `
name: x
tables:
  - name: a
  - name: a
`,
			check: IsSchemaError,
		},
		{
			name: "duplicate column",
			src: `
name: x
tables:
  - name: a
    columns: [{name: id}, {name: id}]
`,
			check: IsSchemaError,
		},
		{
			name: "unknown foreign table",
			src: `
name: x
tables:
  - name: a
    columns: [{name: id}]
    foreignKeys:
      - foreignTable: b
        references: [{local: id, foreign: id}]
`,
			check: IsSchemaError,
		},
		{
			name: "foreign key without mapping",
			src: `
name: x
tables:
  - name: a
    foreignKeys:
      - foreignTable: a
`,
			check: IsSchemaError,
		},
		{
			name: "behaviors without factory",
			src: `
name: x
tables:
  - name: a
    behaviors: [{name: timestampable}]
`,
			check: IsConfigError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDatabase(DefaultConfig(), parseDef(t, tt.src))
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
	_, err := NewDatabase(DefaultConfig(), nil)
	assert.True(t, IsArgumentError(err))
}

func TestAttachBehaviors(t *testing.T) {
	const src = `
name: x
behaviors:
  - {name: versionable}
  - {name: timestampable, parameters: {from: db}}
tables:
  - name: a
    behaviors:
      - {name: timestampable, parameters: {from: table}}
    columns: [{name: id, primaryKey: true}]
  - name: b
    columns: [{name: id, primaryKey: true}]
`
	var calls []string
	factory := func(def *load.Behavior, t *Table) (Behavior, error) {
		calls = append(calls, t.Name+"."+def.Name+"."+def.Parameters["from"])
		return &testBehavior{name: def.Name, modify: func(t *Table) error {
			if def.Name != "timestampable" || t.HasColumn("created_at") {
				return nil
			}
			return t.AddColumn(&Column{Name: "created_at", Type: "timestamp"})
		}}, nil
	}
	_, db := testDatabase(t, src, WithBehaviorFactory(factory))
	assert.Equal(t, []string{"a.timestampable.table", "a.versionable.", "b.versionable.", "b.timestampable.db"}, calls)

	a := testTable(t, db, "a")
	require.Len(t, a.Behaviors, 2)
	assert.Equal(t, "timestampable", a.Behaviors[0].Name())
	assert.True(t, a.HasBehavior("versionable"))
	assert.False(t, a.HasBehavior("sluggable"))
	c, ok := a.Column("created_at")
	require.True(t, ok)
	assert.Equal(t, "TIMESTAMP", c.Type)
	assert.True(t, c.IsTemporal())

	t.Run("factory error", func(t *testing.T) {
		failing := func(*load.Behavior, *Table) (Behavior, error) { return nil, errors.New("unknown behavior") }
		c, err := NewConfig(WithBehaviorFactory(failing))
		require.NoError(t, err)
		_, err = NewDatabase(c, parseDef(t, src))
		require.Error(t, err)
		assert.True(t, IsSchemaError(err))
		assert.Contains(t, err.Error(), "unknown behavior")
	})
}

func TestTableAddColumn(t *testing.T) {
	_, db := testDatabase(t, bookstore)
	book := testTable(t, db, "book")
	require.NoError(t, book.AddColumn(&Column{Name: "isbn"}))
	assert.Len(t, book.Columns, 5)
	assert.True(t, book.HasColumn("isbn"))
	assert.True(t, IsSchemaError(book.AddColumn(&Column{Name: "isbn"})))
	assert.True(t, IsSchemaError(book.AddColumn(&Column{})))
}

func TestTablePrimaryKey(t *testing.T) {
	_, db := testDatabase(t, `
name: x
tables:
  - name: line
    columns:
      - {name: order_id, primaryKey: true}
      - {name: pos, primaryKey: true}
      - {name: qty}
  - name: log
    columns: [{name: msg}]
`)
	line := testTable(t, db, "line")
	require.Len(t, line.PrimaryKey(), 2)
	assert.Equal(t, "pos", line.PrimaryKey()[1].Name)
	assert.True(t, line.HasPrimaryKey())
	assert.False(t, testTable(t, db, "log").HasPrimaryKey())
}

func TestColumn(t *testing.T) {
	tests := []struct {
		typ      string
		phpType  string
		temporal bool
	}{
		{"INTEGER", "int", false},
		{"TINYINT", "int", false},
		{"BOOLEAN", "boolean", false},
		{"DOUBLE", "double", false},
		{"BLOB", "resource", false},
		{"TIMESTAMP", "string", true},
		{"DATE", "string", true},
		{"VARCHAR", "string", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			c := &Column{Name: "c", Type: tt.typ}
			assert.Equal(t, tt.phpType, c.PhpType())
			assert.Equal(t, tt.temporal, c.IsTemporal())
		})
	}

	c := &Column{Name: "author_id"}
	assert.Equal(t, "AuthorId", c.PhpName())
	assert.Equal(t, "AUTHOR_ID", c.ConstantName())
	c.SetPhpName("Writer")
	assert.Equal(t, "Writer", c.PhpName())
	c.PeerName = "writer"
	assert.Equal(t, "WRITER", c.ConstantName())
}
