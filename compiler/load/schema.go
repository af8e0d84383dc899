// Package load reads omgen database schemas from schema files or live databases.
package load

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database represents a database definition loaded from a schema file.
type Database struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Package   string `json:"package,omitempty" yaml:"package,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	BaseClass string `json:"baseClass,omitempty" yaml:"baseClass,omitempty"`
	BasePeer  string `json:"basePeer,omitempty" yaml:"basePeer,omitempty"`
	// Behaviors declared on the database apply to every table.
	Behaviors []*Behavior `json:"behaviors,omitempty" yaml:"behaviors,omitempty"`
	Tables    []*Table    `json:"tables,omitempty" yaml:"tables,omitempty"`
}

// Table represents a table definition loaded from a schema file.
type Table struct {
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	PhpName     string        `json:"phpName,omitempty" yaml:"phpName,omitempty"`
	Package     string        `json:"package,omitempty" yaml:"package,omitempty"`
	Namespace   string        `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	BaseClass   string        `json:"baseClass,omitempty" yaml:"baseClass,omitempty"`
	BasePeer    string        `json:"basePeer,omitempty" yaml:"basePeer,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Columns     []*Column     `json:"columns,omitempty" yaml:"columns,omitempty"`
	ForeignKeys []*ForeignKey `json:"foreignKeys,omitempty" yaml:"foreignKeys,omitempty"`
	Behaviors   []*Behavior   `json:"behaviors,omitempty" yaml:"behaviors,omitempty"`
}

// Column represents a column definition loaded from a schema file.
type Column struct {
	Name          string `json:"name,omitempty" yaml:"name,omitempty"`
	PhpName       string `json:"phpName,omitempty" yaml:"phpName,omitempty"`
	PeerName      string `json:"peerName,omitempty" yaml:"peerName,omitempty"`
	Type          string `json:"type,omitempty" yaml:"type,omitempty"`
	Size          int    `json:"size,omitempty" yaml:"size,omitempty"`
	PrimaryKey    bool   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Required      bool   `json:"required,omitempty" yaml:"required,omitempty"`
	AutoIncrement bool   `json:"autoIncrement,omitempty" yaml:"autoIncrement,omitempty"`
	Default       string `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ForeignKey represents a foreign-key definition loaded from a schema file.
type ForeignKey struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	ForeignTable string       `json:"foreignTable,omitempty" yaml:"foreignTable,omitempty"`
	PhpName      string       `json:"phpName,omitempty" yaml:"phpName,omitempty"`
	RefPhpName   string       `json:"refPhpName,omitempty" yaml:"refPhpName,omitempty"`
	DefaultJoin  string       `json:"defaultJoin,omitempty" yaml:"defaultJoin,omitempty"`
	OnDelete     string       `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
	OnUpdate     string       `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty"`
	References   []*Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

// Reference maps one local column to one foreign column.
type Reference struct {
	Local   string `json:"local,omitempty" yaml:"local,omitempty"`
	Foreign string `json:"foreign,omitempty" yaml:"foreign,omitempty"`
}

// Behavior is a named behavior attached to a table or a database.
type Behavior struct {
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Format is the encoding of a schema file.
type Format int

// Supported schema file formats.
const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatOf returns the schema format for the given file name.
func FormatOf(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("load: unsupported schema file extension %q", ext)
	}
}

// File reads and decodes the schema file at path.
func File(path string) (*Database, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read schema: %w", err)
	}
	db, err := UnmarshalDatabase(buf, format)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	return db, nil
}

// UnmarshalDatabase decodes the given buffer to a loaded database.
func UnmarshalDatabase(buf []byte, format Format) (*Database, error) {
	db := &Database{}
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(buf, db); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(buf, db); err != nil {
			return nil, err
		}
	}
	if db.Name == "" {
		return nil, fmt.Errorf("missing database name")
	}
	return db, nil
}

// MarshalDatabase encodes the database in the given format.
func MarshalDatabase(db *Database, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(db, "", "  ")
	}
	return yaml.Marshal(db)
}

// Table returns the table with the given name.
func (d *Database) Table(name string) (*Table, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
