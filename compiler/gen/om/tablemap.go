package om

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/syssam/omgen/compiler/gen"
)

// TableMap builds the table map class of a table (e.g. BookTableMap).
type TableMap struct{}

// Kind implements gen.Artifact.
func (TableMap) Kind() string { return gen.KindTableMap }

// UnprefixedClassName implements gen.Artifact.
func (TableMap) UnprefixedClassName(t *gen.Table) string { return t.PhpName() + "TableMap" }

// Subpackage implements gen.Subpackager.
func (TableMap) Subpackage() string { return "map" }

// SubNamespace implements gen.SubNamespacer.
func (TableMap) SubNamespace(c *gen.Config) string { return c.NamespaceMap() }

// Includes implements gen.IncludeAdder.
func (TableMap) Includes(u *gen.Unit) error {
	u.Script.Printf("require_once 'propel/map/TableMap.php';\n\n")
	return nil
}

// ClassOpen implements gen.Artifact.
func (TableMap) ClassOpen(u *gen.Unit) error {
	u.Imports.DeclareClasses("TableMap", "RelationMap")
	classDoc(u, fmt.Sprintf("This class defines the structure of the '%s' table.", u.Table().Name))
	u.Script.Printf("class %s extends TableMap\n{\n", u.ClassName())
	return nil
}

// ClassBody implements gen.Artifact.
func (m TableMap) ClassBody(u *gen.Unit) error {
	t := u.Table()
	pkg, err := u.RequirePackage()
	if err != nil {
		return err
	}
	obj, err := u.For(gen.KindStubObject)
	if err != nil {
		return err
	}
	u.Script.Printf(`
	/**
	 * The (dot-path) name of this class
	 */
	const CLASS_NAME = %s;

	/**
	 * Initialize the table attributes, columns and validators
	 * Relations are not initialized by this method since they are lazy loaded
	 *
	 * @return void
	 * @throws PropelException
	 */
	public function initialize()
	{
		// attributes
		$this->setName(%s);
		$this->setPhpName(%s);
		$this->setClassname(%s);
		$this->setPackage(%s);
		$this->setUseIdGenerator(%t);
		// columns
`, quote(u.Classpath()), quote(t.Name), quote(t.PhpName()), quote(obj.FullyQualifiedClassName()), quote(pkg), useIDGenerator(t))
	for _, c := range t.Columns {
		if err := m.column(u, c); err != nil {
			return err
		}
	}
	u.Script.Printf("\t} // initialize()\n")
	if err := m.relations(u); err != nil {
		return err
	}
	m.behaviors(u)
	return nil
}

// ClassClose implements gen.Artifact.
func (TableMap) ClassClose(u *gen.Unit) error {
	return closeClass(u, "tableMapFilter", gen.TableMapBuilderModifier)
}

func (TableMap) column(u *gen.Unit, c *gen.Column) error {
	size := "null"
	if c.Size > 0 {
		size = fmt.Sprint(c.Size)
	}
	def := "null"
	if c.Default != "" {
		def = quote(c.Default)
	}
	fk := foreignKeyOf(c)
	switch {
	case fk != nil && c.PrimaryKey:
		u.Script.Printf("\t\t$this->addForeignPrimaryKey(%s, %s, %s, %s, %s, %t, %s, %s);\n",
			quote(c.Name), quote(c.PhpName()), quote(c.Type), quote(fk.ForeignTableName), quote(foreignColumn(fk, c)), c.Required, size, def)
	case c.PrimaryKey:
		u.Script.Printf("\t\t$this->addPrimaryKey(%s, %s, %s, %t, %s, %s);\n",
			quote(c.Name), quote(c.PhpName()), quote(c.Type), c.Required, size, def)
	case fk != nil:
		u.Script.Printf("\t\t$this->addForeignKey(%s, %s, %s, %s, %s, %t, %s, %s);\n",
			quote(c.Name), quote(c.PhpName()), quote(c.Type), quote(fk.ForeignTableName), quote(foreignColumn(fk, c)), c.Required, size, def)
	default:
		u.Script.Printf("\t\t$this->addColumn(%s, %s, %s, %t, %s, %s);\n",
			quote(c.Name), quote(c.PhpName()), quote(c.Type), c.Required, size, def)
	}
	return nil
}

func (TableMap) relations(u *gen.Unit) error {
	u.Script.Printf(`
	/**
	 * Build the RelationMap objects for this table relationships
	 */
	public function buildRelations()
	{
`)
	for _, fk := range u.Table().ForeignKeys {
		name, err := u.FKPhpNameAffix(fk, false)
		if err != nil {
			return err
		}
		obj, err := u.ForTable(gen.KindStubObject, fk.ForeignTable())
		if err != nil {
			return err
		}
		u.Script.Printf("\t\t$this->addRelation(%s, %s, RelationMap::MANY_TO_ONE, %s, %s, %s);\n",
			quote(name), quote(obj.FullyQualifiedClassName()), mapping(fk, false), action(fk.OnDelete), action(fk.OnUpdate))
	}
	for _, fk := range u.Table().Referrers() {
		name, err := u.RefFKPhpNameAffix(fk, false)
		if err != nil {
			return err
		}
		plural, err := u.RefFKPhpNameAffix(fk, true)
		if err != nil {
			return err
		}
		obj, err := u.ForTable(gen.KindStubObject, fk.Table())
		if err != nil {
			return err
		}
		u.Script.Printf("\t\t$this->addRelation(%s, %s, RelationMap::ONE_TO_MANY, %s, %s, %s, %s);\n",
			quote(name), quote(obj.FullyQualifiedClassName()), mapping(fk, true), action(fk.OnDelete), action(fk.OnUpdate), quote(plural))
	}
	u.Script.Printf("\t} // buildRelations()\n")
	return nil
}

// parameterized is implemented by behaviors exposing their parameters.
type parameterized interface {
	Parameters() map[string]string
}

func (TableMap) behaviors(u *gen.Unit) {
	if len(u.Table().Behaviors) == 0 {
		return
	}
	u.Script.Printf(`
	/**
	 *
	 * Gets the list of behaviors registered for this table
	 *
	 * @return array Associative array (name => parameters) of behaviors
	 */
	public function getBehaviors()
	{
		return array(
`)
	for _, b := range u.Table().Behaviors {
		var params []string
		if p, ok := b.(parameterized); ok {
			ps := p.Parameters()
			for _, k := range slices.Sorted(maps.Keys(ps)) {
				params = append(params, fmt.Sprintf("%s => %s, ", quote(k), quote(ps[k])))
			}
		}
		u.Script.Printf("\t\t\t%s => array(%s),\n", quote(b.Name()), strings.Join(params, ""))
	}
	u.Script.Printf("\t\t);\n\t} // getBehaviors()\n")
}

// useIDGenerator reports if the table has an auto-increment primary key.
func useIDGenerator(t *gen.Table) bool {
	return slices.ContainsFunc(t.PrimaryKey(), func(c *gen.Column) bool { return c.AutoIncrement })
}

// foreignKeyOf returns the first foreign key using c as local column.
func foreignKeyOf(c *gen.Column) *gen.ForeignKey {
	for _, fk := range c.Table().ForeignKeys {
		if slices.Contains(fk.LocalColumnNames(), c.Name) {
			return fk
		}
	}
	return nil
}

func foreignColumn(fk *gen.ForeignKey, c *gen.Column) string {
	for _, r := range fk.References {
		if r.Local == c.Name {
			return r.Foreign
		}
	}
	return ""
}

// mapping returns the local => foreign column array of fk. Reversed
// mappings are seen from the referenced table.
func mapping(fk *gen.ForeignKey, reverse bool) string {
	var b strings.Builder
	b.WriteString("array(")
	for _, r := range fk.References {
		from, to := r.Local, r.Foreign
		if reverse {
			from, to = to, from
		}
		fmt.Fprintf(&b, "%s => %s, ", quote(from), quote(to))
	}
	b.WriteString(")")
	return b.String()
}

func action(a string) string {
	if a == "" {
		return "null"
	}
	return quote(strings.ToUpper(a))
}
