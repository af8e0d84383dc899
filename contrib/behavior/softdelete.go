package behavior

import (
	"fmt"
	"maps"

	"github.com/syssam/omgen/compiler/gen"
)

// SoftDeleteName is the schema name of the SoftDelete behavior.
const SoftDeleteName = "soft_delete"

// SoftDelete marks rows as deleted with a deletion timestamp instead of
// removing them. Queries skip deleted rows unless told otherwise.
//
// Added column (unless present):
//
//	deleted_at TIMESTAMP
//
// Parameters: deleted_column.
type SoftDelete struct {
	params    map[string]string
	column    string
	modifiers map[gen.ModifierCategory]*gen.Modifier
}

// soft delete behavior must implement `Behavior` and `TableModifier`.
var (
	_ gen.Behavior      = (*SoftDelete)(nil)
	_ gen.TableModifier = (*SoftDelete)(nil)
)

// NewSoftDelete returns the behavior with the given parameters.
func NewSoftDelete(given map[string]string) (*SoftDelete, error) {
	p, err := params(SoftDeleteName, given, map[string]string{
		"deleted_column": "deleted_at",
	})
	if err != nil {
		return nil, err
	}
	b := &SoftDelete{params: p, column: p["deleted_column"]}
	b.modifiers = map[gen.ModifierCategory]*gen.Modifier{
		gen.ObjectBuilderModifier: {Append: map[string]gen.AppendFunc{
			"preDelete":     b.preDelete,
			"objectMethods": b.objectMethods,
		}},
		gen.QueryBuilderModifier: {Append: map[string]gen.AppendFunc{
			"queryAttributes": b.queryAttributes,
			"preSelectQuery":  b.preSelectQuery,
			"queryMethods":    b.queryMethods,
		}},
	}
	return b, nil
}

// Name implements gen.Behavior.
func (*SoftDelete) Name() string { return SoftDeleteName }

// Modifier implements gen.Behavior.
func (b *SoftDelete) Modifier(c gen.ModifierCategory) *gen.Modifier { return b.modifiers[c] }

// Parameters returns the effective parameters of the behavior.
func (b *SoftDelete) Parameters() map[string]string { return maps.Clone(b.params) }

// ModifyTable implements gen.TableModifier.
func (b *SoftDelete) ModifyTable(t *gen.Table) error {
	return addColumn(t, b.column)
}

func (b *SoftDelete) preDelete(u *gen.Unit) (string, error) {
	c, _, err := column(u, b.column)
	if err != nil {
		return "", err
	}
	s := fmt.Sprintf("if ($ret && %s::isSoftDeleteEnabled()) {\n", u.QueryClassName())
	if keepsUpdateDate(u.Table()) {
		s += "\t$this->keepUpdateDateUnchanged();\n"
	}
	s += fmt.Sprintf("\t$this->set%s(time());\n\t$this->save($con);\n\t$con->commit();\n\n\treturn;\n}\n", c.PhpName())
	return s, nil
}

// keepsUpdateDate reports if t has a timestampable behavior maintaining an
// update column, which a soft delete must leave untouched.
func keepsUpdateDate(t *gen.Table) bool {
	for _, bh := range t.Behaviors {
		if ts, ok := bh.(*Timestampable); ok && ts.withUpdatedAt {
			return true
		}
	}
	return false
}

func (b *SoftDelete) objectMethods(u *gen.Unit) (string, error) {
	c, _, err := column(u, b.column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`
/**
 * Bring an object back from the soft deleted state
 *
 * @param PropelPDO $con
 * @return int The number of rows affected by this update
 */
public function unDelete(PropelPDO $con = null)
{
	$this->set%[1]s(null);

	return $this->save($con);
}

/**
 * Removes the object from the database, ignoring the soft delete
 *
 * @param PropelPDO $con
 */
public function forceDelete(PropelPDO $con = null)
{
	%[2]s::disableSoftDelete();
	$this->delete($con);
}
`, c.PhpName(), u.QueryClassName()), nil
}

func (*SoftDelete) queryAttributes(*gen.Unit) (string, error) {
	return "protected static $softDelete = true;\nprotected $localSoftDelete = true;\n", nil
}

func (b *SoftDelete) preSelectQuery(u *gen.Unit) (string, error) {
	_, constant, err := column(u, b.column)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`if (%[1]s::isSoftDeleteEnabled() && $this->localSoftDelete) {
	$this->addUsingAlias(%[2]s, null, Criteria::ISNULL);
} else {
	%[1]s::enableSoftDelete();
}
`, u.QueryClassName(), constant), nil
}

func (*SoftDelete) queryMethods(u *gen.Unit) (string, error) {
	return fmt.Sprintf(`
/**
 * Temporarily disable the filter on deleted rows
 * Valid only for the current query
 *
 * @see %[1]s::disableSoftDelete() to disable the filter for more than one query
 *
 * @return %[1]s The current query, for fluid interface
 */
public function includeDeleted()
{
	$this->localSoftDelete = false;

	return $this;
}

/**
 * Enable the soft_delete behavior for this model
 */
public static function enableSoftDelete()
{
	self::$softDelete = true;
}

/**
 * Disable the soft_delete behavior for this model
 */
public static function disableSoftDelete()
{
	self::$softDelete = false;
}

/**
 * Check the soft_delete behavior for this model
 *
 * @return boolean true if the soft_delete behavior is enabled
 */
public static function isSoftDeleteEnabled()
{
	return self::$softDelete;
}
`, u.QueryClassName()), nil
}
