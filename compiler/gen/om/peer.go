package om

import (
	"fmt"
	"strings"

	"github.com/syssam/omgen/compiler/gen"
)

// Peer builds the base peer class of a table (e.g. BaseBookPeer).
type Peer struct{ baseKind }

// Kind implements gen.Artifact.
func (Peer) Kind() string { return gen.KindPeer }

// UnprefixedClassName implements gen.Artifact.
func (Peer) UnprefixedClassName(t *gen.Table) string { return "Base" + t.PhpName() + "Peer" }

// Validate rejects tables where two columns map to the same peer constant.
func (Peer) Validate(b *gen.Builder) error {
	t := b.Table()
	seen := make(map[string]string, len(t.Columns))
	for _, c := range t.Columns {
		name := constant(c)
		if prev, ok := seen[name]; ok {
			return gen.NewValidationError(t.Name, c.Name, name, fmt.Sprintf("peer constant %s is already used by column %s; set a peerName on the column", name, prev))
		}
		seen[name] = c.Name
	}
	return nil
}

// Includes implements gen.IncludeAdder.
func (Peer) Includes(u *gen.Unit) error {
	if bp := u.BasePeer(u.Table()); !strings.Contains(bp, `\`) {
		u.Script.Printf("require_once '%s';\n\n", includePath(bp))
	}
	return nil
}

// ClassOpen implements gen.Artifact.
func (Peer) ClassOpen(u *gen.Unit) error {
	classDoc(u, fmt.Sprintf("Base static class for performing query and update operations on the '%s' table.", u.Table().Name))
	u.Script.Printf("abstract class %s\n{\n", u.ClassName())
	return nil
}

// ClassBody implements gen.Artifact.
func (p Peer) ClassBody(u *gen.Unit) error {
	t := u.Table()
	obj, err := sibling(u, gen.KindStubObject, nil)
	if err != nil {
		return err
	}
	basePeer := className(u, u.BasePeer(t))
	u.Imports.DeclareClasses("Propel", "Criteria")
	db := ""
	if d := u.Database(); d != nil {
		db = d.Name
	}
	u.Script.Printf(`
	/** the default database name for this class */
	const DATABASE_NAME = %s;

	/** the table name for this class */
	const TABLE_NAME = %s;

	/** the related Propel class for this table */
	const OM_CLASS = %s;
`, quote(db), quote(t.Name), quote(obj.FullyQualifiedClassName()))
	if tm, err := u.For(gen.KindTableMap); err == nil {
		u.Imports.DeclareClassFromBuilder(tm)
		u.Script.Printf(`
	/** the related TableMap class for this table */
	const TM_CLASS = %s;
`, quote(tm.ClassName()))
	}
	u.Script.Printf(`
	/** The total number of columns. */
	const NUM_COLUMNS = %d;
`, len(t.Columns))
	for _, c := range t.Columns {
		u.Script.Printf(`
	/** the column name for the %s field */
	const %s = %s;
`, c.Name, constant(c), quote(t.Name+"."+c.Name))
	}
	if err := u.ApplyBehaviorModifier("staticAttributes", gen.PeerBuilderModifier, u.Script, "\t"); err != nil {
		return err
	}
	if err := p.fieldNames(u, basePeer); err != nil {
		return err
	}
	if err := p.selectColumns(u); err != nil {
		return err
	}
	p.instancePool(u, obj.ClassName())
	return u.ApplyBehaviorModifier("staticMethods", gen.PeerBuilderModifier, u.Script, "\t")
}

// ClassClose implements gen.Artifact.
func (Peer) ClassClose(u *gen.Unit) error {
	return closeClass(u, "peerFilter", gen.PeerBuilderModifier)
}

func (Peer) fieldNames(u *gen.Unit, basePeer string) error {
	t := u.Table()
	var phpNames, colNames, rawNames, fieldNames []string
	for _, c := range t.Columns {
		cc, err := u.ColumnConstant(c, u.PeerClassName())
		if err != nil {
			return err
		}
		raw, err := u.ColumnConstant(c, "")
		if err != nil {
			return err
		}
		phpNames = append(phpNames, quote(c.PhpName()))
		colNames = append(colNames, cc)
		rawNames = append(rawNames, quote(raw))
		fieldNames = append(fieldNames, quote(c.Name))
	}
	u.Script.Printf(`
	/**
	 * holds an array of fieldnames
	 *
	 * first dimension keys are the type constants
	 * e.g. %[1]s::$fieldNames[%[2]s::TYPE_PHPNAME][0] = 'Id'
	 */
	protected static $fieldNames = array (
		%[2]s::TYPE_PHPNAME => array (%[3]s, ),
		%[2]s::TYPE_COLNAME => array (%[4]s, ),
		%[2]s::TYPE_RAW_COLNAME => array (%[5]s, ),
		%[2]s::TYPE_FIELDNAME => array (%[6]s, ),
	);

	/**
	 * Returns an array of field names.
	 *
	 * @param string $type The type of fieldnames to return
	 * @return array A list of field names
	 */
	public static function getFieldNames($type = %[2]s::TYPE_PHPNAME)
	{
		return %[1]s::$fieldNames[$type];
	}
`, u.PeerClassName(), basePeer, strings.Join(phpNames, ", "), strings.Join(colNames, ", "), strings.Join(rawNames, ", "), strings.Join(fieldNames, ", "))
	return nil
}

func (Peer) selectColumns(u *gen.Unit) error {
	u.Script.Printf(`
	/**
	 * Add all the columns needed to create a new object.
	 *
	 * @param Criteria $criteria object containing the columns to add.
	 * @param string $alias optional table alias
	 */
	public static function addSelectColumns(Criteria $criteria, $alias = null)
	{
		if (null === $alias) {
`)
	for _, c := range u.Table().Columns {
		cc, err := u.ColumnConstant(c, u.PeerClassName())
		if err != nil {
			return err
		}
		u.Script.Printf("\t\t\t$criteria->addSelectColumn(%s);\n", cc)
	}
	u.Script.Printf("\t\t} else {\n")
	for _, c := range u.Table().Columns {
		u.Script.Printf("\t\t\t$criteria->addSelectColumn($alias . '.%s');\n", c.Name)
	}
	u.Script.Printf(`		}
	}

	/**
	 * Returns the TableMap related to this peer.
	 *
	 * @return TableMap
	 */
	public static function getTableMap()
	{
		return Propel::getDatabaseMap(%[1]s::DATABASE_NAME)->getTable(%[1]s::TABLE_NAME);
	}
`, u.PeerClassName())
	return nil
}

func (Peer) instancePool(u *gen.Unit, obj string) {
	pk := u.Table().PrimaryKey()
	if len(pk) == 0 {
		return
	}
	key := fmt.Sprintf("(string) $obj->get%s()", pk[0].PhpName())
	if len(pk) > 1 {
		parts := make([]string, len(pk))
		for i, c := range pk {
			parts[i] = fmt.Sprintf("(string) $obj->get%s()", c.PhpName())
		}
		key = "serialize(array(" + strings.Join(parts, ", ") + "))"
	}
	u.Script.Printf(`
	/**
	 * An identity map to hold any loaded instances of %[1]s objects.
	 * @var array %[1]s[]
	 */
	public static $instances = array();

	/**
	 * Adds an object to the instance pool.
	 *
	 * @param %[1]s $obj A %[1]s object.
	 * @param string $key (optional) key to use for instance map
	 */
	public static function addInstanceToPool($obj, $key = null)
	{
		if (Propel::isInstancePoolingEnabled()) {
			if ($key === null) {
				$key = %[2]s;
			}
			%[3]s::$instances[$key] = $obj;
		}
	}

	/**
	 * Retrieves a string version of the primary key from the DB resultset row.
	 *
	 * @param string $key The key (@see getPrimaryKeyHash()) for this instance.
	 * @return %[1]s Found object or null if 1) no instance exists for specified key or 2) instance pooling has been disabled.
	 */
	public static function getInstanceFromPool($key)
	{
		if (Propel::isInstancePoolingEnabled()) {
			if (isset(%[3]s::$instances[$key])) {
				return %[3]s::$instances[$key];
			}
		}

		return null;
	}

	/**
	 * Clear the instance pool.
	 *
	 * @return void
	 */
	public static function clearInstancePool()
	{
		%[3]s::$instances = array();
	}
`, obj, key, u.PeerClassName())
}

// constant returns the name of the peer constant of c.
func constant(c *gen.Column) string {
	if c.PeerName != "" {
		return strings.ToUpper(c.PeerName)
	}
	return strings.ToUpper(c.Name)
}
