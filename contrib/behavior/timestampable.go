package behavior

import (
	"fmt"
	"maps"

	"github.com/syssam/omgen/compiler/gen"
)

// TimestampableName is the schema name of the Timestampable behavior.
const TimestampableName = "timestampable"

// Timestampable keeps the creation and last update times of the rows.
//
// Added columns (unless present):
//
//	created_at TIMESTAMP
//	updated_at TIMESTAMP
//
// Parameters: create_column, update_column, disable_updated_at.
type Timestampable struct {
	params        map[string]string
	createColumn  string
	updateColumn  string
	withUpdatedAt bool
	modifiers     map[gen.ModifierCategory]*gen.Modifier
}

// timestampable behavior must implement `Behavior` and `TableModifier`.
var (
	_ gen.Behavior      = (*Timestampable)(nil)
	_ gen.TableModifier = (*Timestampable)(nil)
)

// NewTimestampable returns the behavior with the given parameters.
func NewTimestampable(given map[string]string) (*Timestampable, error) {
	p, err := params(TimestampableName, given, map[string]string{
		"create_column":      "created_at",
		"update_column":      "updated_at",
		"disable_updated_at": "false",
	})
	if err != nil {
		return nil, err
	}
	disabled, err := boolParam(TimestampableName, p, "disable_updated_at")
	if err != nil {
		return nil, err
	}
	b := &Timestampable{
		params:        p,
		createColumn:  p["create_column"],
		updateColumn:  p["update_column"],
		withUpdatedAt: !disabled,
	}
	object := &gen.Modifier{Append: map[string]gen.AppendFunc{
		"preInsert": b.preInsert,
	}}
	query := &gen.Modifier{Append: map[string]gen.AppendFunc{
		"queryMethods": b.queryMethods,
	}}
	if b.withUpdatedAt {
		object.Append["preUpdate"] = b.preUpdate
		object.Append["objectMethods"] = b.objectMethods
	}
	b.modifiers = map[gen.ModifierCategory]*gen.Modifier{
		gen.ObjectBuilderModifier: object,
		gen.QueryBuilderModifier:  query,
	}
	return b, nil
}

// Name implements gen.Behavior.
func (*Timestampable) Name() string { return TimestampableName }

// Modifier implements gen.Behavior.
func (b *Timestampable) Modifier(c gen.ModifierCategory) *gen.Modifier { return b.modifiers[c] }

// Parameters returns the effective parameters of the behavior.
func (b *Timestampable) Parameters() map[string]string { return maps.Clone(b.params) }

// ModifyTable implements gen.TableModifier.
func (b *Timestampable) ModifyTable(t *gen.Table) error {
	if err := addColumn(t, b.createColumn); err != nil {
		return err
	}
	if b.withUpdatedAt {
		return addColumn(t, b.updateColumn)
	}
	return nil
}

func (b *Timestampable) preInsert(u *gen.Unit) (string, error) {
	s := ""
	names := []string{b.createColumn}
	if b.withUpdatedAt {
		names = append(names, b.updateColumn)
	}
	for _, name := range names {
		c, constant, err := column(u, name)
		if err != nil {
			return "", err
		}
		s += fmt.Sprintf("if (!$this->isColumnModified(%s)) {\n\t$this->set%s(time());\n}\n", constant, c.PhpName())
	}
	return s, nil
}

func (b *Timestampable) preUpdate(u *gen.Unit) (string, error) {
	c, constant, err := column(u, b.updateColumn)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("if ($this->isModified() && !$this->isColumnModified(%s)) {\n\t$this->set%s(time());\n}\n", constant, c.PhpName()), nil
}

func (b *Timestampable) objectMethods(u *gen.Unit) (string, error) {
	_, constant, err := column(u, b.updateColumn)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`
/**
 * Mark the current object so that the update date doesn't get updated during next save
 *
 * @return %s The current object (for fluent API support)
 */
public function keepUpdateDateUnchanged()
{
	$this->modifiedColumns[] = %s;

	return $this;
}
`, u.ObjectClassName(), constant), nil
}

func (b *Timestampable) queryMethods(u *gen.Unit) (string, error) {
	query := u.QueryClassName()
	_, created, err := column(u, b.createColumn)
	if err != nil {
		return "", err
	}
	var s string
	if b.withUpdatedAt {
		_, updated, err := column(u, b.updateColumn)
		if err != nil {
			return "", err
		}
		s += recently(query, "updated", updated)
		s += order(query, "lastUpdatedFirst", "last updated", "addDescendingOrderByColumn", updated)
		s += order(query, "firstUpdatedFirst", "first updated", "addAscendingOrderByColumn", updated)
	}
	s += recently(query, "created", created)
	s += order(query, "lastCreatedFirst", "last created", "addDescendingOrderByColumn", created)
	s += order(query, "firstCreatedFirst", "first created", "addAscendingOrderByColumn", created)
	return s, nil
}

func recently(query, what, constant string) string {
	return fmt.Sprintf(`
/**
 * Filter by the latest %[2]s
 *
 * @param int $nbDays Maximum age of the latest %[2]s in days
 * @return %[1]s The current query, for fluid interface
 */
public function recently%[3]s($nbDays = 7)
{
	return $this->addUsingAlias(%[4]s, time() - $nbDays * 24 * 60 * 60, Criteria::GREATER_EQUAL);
}
`, query, what, gen.PhpName(what), constant)
}

func order(query, method, what, fn, constant string) string {
	return fmt.Sprintf(`
/**
 * Order by %[3]s
 *
 * @return %[1]s The current query, for fluid interface
 */
public function %[2]s()
{
	return $this->%[4]s(%[5]s);
}
`, query, method, what, fn, constant)
}
