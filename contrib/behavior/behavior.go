// Package behavior provides the built-in behaviors of omgen schemas.
//
// Behaviors are declared by name on a table, or on the database to apply
// them to every table:
//
//	tables:
//	  - name: book
//	    behaviors:
//	      - name: timestampable
//	        parameters:
//	          update_column: modified_at
//
// Available behaviors:
//   - timestampable: Maintains created_at and updated_at columns
//   - soft_delete: Marks rows as deleted instead of deleting them
//
// Factory resolves the entries of a schema and is passed to the generator
// config:
//
//	cfg, err := gen.NewConfig(gen.WithBehaviorFactory(behavior.Factory))
package behavior

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/syssam/omgen/compiler/gen"
	"github.com/syssam/omgen/compiler/load"
)

// New returns a behavior from its parameters.
type New func(params map[string]string) (gen.Behavior, error)

var builtin = map[string]New{
	TimestampableName: func(p map[string]string) (gen.Behavior, error) { return NewTimestampable(p) },
	SoftDeleteName:    func(p map[string]string) (gen.Behavior, error) { return NewSoftDelete(p) },
}

// Names returns the names of the built-in behaviors.
func Names() []string {
	return slices.Sorted(maps.Keys(builtin))
}

// Factory implements gen.BehaviorFactory for the built-in behaviors.
func Factory(def *load.Behavior, _ *gen.Table) (gen.Behavior, error) {
	n, ok := builtin[def.Name]
	if !ok {
		return nil, fmt.Errorf("behavior: unknown behavior %q", def.Name)
	}
	return n(def.Parameters)
}

// params merges the given parameters over the defaults. Parameters without
// a default are rejected.
func params(name string, given, defaults map[string]string) (map[string]string, error) {
	p := maps.Clone(defaults)
	for _, k := range slices.Sorted(maps.Keys(given)) {
		if _, ok := defaults[k]; !ok {
			return nil, fmt.Errorf("behavior: unknown parameter %q for %s", k, name)
		}
		p[k] = given[k]
	}
	return p, nil
}

func boolParam(name string, p map[string]string, key string) (bool, error) {
	v, err := strconv.ParseBool(p[key])
	if err != nil {
		return false, fmt.Errorf("behavior: parameter %q of %s: %w", key, name, err)
	}
	return v, nil
}

// addColumn adds a timestamp column unless the table already has one with
// that name.
func addColumn(t *gen.Table, name string) error {
	if t.HasColumn(name) {
		return nil
	}
	return t.AddColumn(&gen.Column{Name: name, Type: "TIMESTAMP"})
}

// column returns the column called name and its peer constant.
func column(u *gen.Unit, name string) (*gen.Column, string, error) {
	c, ok := u.Table().Column(name)
	if !ok {
		return nil, "", gen.NewSchemaError(u.Table().Name, name, "behavior column not found", nil)
	}
	constant, err := u.ColumnConstant(c, u.PeerClassName())
	if err != nil {
		return nil, "", err
	}
	return c, constant, nil
}
