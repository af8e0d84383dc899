package om

import (
	"fmt"
	"strings"

	"github.com/syssam/omgen/compiler/gen"
)

// Object builds the base object class of a table (e.g. BaseBook).
type Object struct{ baseKind }

// Kind implements gen.Artifact.
func (Object) Kind() string { return gen.KindObject }

// UnprefixedClassName implements gen.Artifact.
func (Object) UnprefixedClassName(t *gen.Table) string { return "Base" + t.PhpName() }

// reservedNames are the column names whose accessors would override the
// methods of BaseObject.
var reservedNames = map[string]bool{
	"New":             true,
	"Deleted":         true,
	"Modified":        true,
	"ModifiedColumns": true,
	"PrimaryKey":      true,
	"Peer":            true,
	"VirtualColumn":   true,
	"VirtualColumns":  true,
}

// Validate rejects columns whose accessors collide with BaseObject methods.
func (Object) Validate(b *gen.Builder) error {
	t := b.Table()
	for _, c := range t.Columns {
		if reservedNames[c.PhpName()] {
			return gen.NewValidationError(t.Name, c.Name, c.PhpName(), fmt.Sprintf("accessors get%[1]s/set%[1]s collide with BaseObject methods; set a phpName on the column", c.PhpName()))
		}
	}
	return nil
}

// Includes implements gen.IncludeAdder.
func (Object) Includes(u *gen.Unit) error {
	parent, err := parentClass(u)
	if err != nil {
		return err
	}
	if !strings.Contains(parent, `\`) {
		u.Script.Printf("require_once '%s';\n", includePath(parent))
	}
	u.Script.Printf("require_once 'propel/om/Persistent.php';\n\n")
	return nil
}

// parentClass returns the parent class of the base object: the one given by
// a behavior, else the table or database base class, else BaseObject.
func parentClass(u *gen.Unit) (string, error) {
	parent, err := u.BehaviorContent("parentClassName", gen.ObjectBuilderModifier)
	if err != nil || parent != "" {
		return parent, err
	}
	if t := u.Table(); t.BaseClass != "" {
		return t.BaseClass, nil
	}
	if db := u.Database(); db != nil && db.BaseClass != "" {
		return db.BaseClass, nil
	}
	return "propel.om.BaseObject", nil
}

// ClassOpen implements gen.Artifact.
func (Object) ClassOpen(u *gen.Unit) error {
	parent, err := parentClass(u)
	if err != nil {
		return err
	}
	parent = className(u, parent)
	u.Imports.DeclareClass("Persistent")
	classDoc(u, fmt.Sprintf("Base class that represents a row from the '%s' table.", u.Table().Name))
	u.Script.Printf("abstract class %s extends %s implements Persistent\n{\n", u.ClassName(), parent)
	return nil
}

// ClassBody implements gen.Artifact.
func (o Object) ClassBody(u *gen.Unit) error {
	peer, err := sibling(u, gen.KindStubPeer, nil)
	if err != nil {
		return err
	}
	if _, err := sibling(u, gen.KindStubQuery, nil); err != nil {
		return err
	}
	u.Imports.DeclareClasses("Propel", "PropelPDO", "PropelException", "Criteria", "Exception")
	u.Script.Printf(`
	/**
	 * Peer class name
	 */
	const PEER = %s;

	/**
	 * The Peer class.
	 * Instance provides a convenient way of calling static methods on a class
	 * that calling code may not be able to identify.
	 * @var %[2]s
	 */
	protected static $peer;
`, quote(peer.ClassName()), peer.ClassName())
	if err := o.attributes(u); err != nil {
		return err
	}
	if err := u.ApplyBehaviorModifier("objectAttributes", gen.ObjectBuilderModifier, u.Script, "\t"); err != nil {
		return err
	}
	for _, c := range u.Table().Columns {
		if err := o.accessors(u, c); err != nil {
			return err
		}
	}
	for _, fk := range u.Table().ForeignKeys {
		if err := o.relation(u, fk); err != nil {
			return err
		}
	}
	for _, fk := range u.Table().Referrers() {
		if err := o.referrer(u, fk); err != nil {
			return err
		}
	}
	o.primaryKey(u)
	if err := o.save(u); err != nil {
		return err
	}
	if err := o.delete(u); err != nil {
		return err
	}
	return u.ApplyBehaviorModifier("objectMethods", gen.ObjectBuilderModifier, u.Script, "\t")
}

// ClassClose implements gen.Artifact.
func (Object) ClassClose(u *gen.Unit) error {
	return closeClass(u, "objectFilter", gen.ObjectBuilderModifier)
}

func (Object) attributes(u *gen.Unit) error {
	for _, c := range u.Table().Columns {
		u.Script.Printf(`
	/**
	 * The value for the %s field.
	 * @var %s
	 */
	protected $%s;
`, c.Name, c.PhpType(), field(c))
	}
	for _, fk := range u.Table().ForeignKeys {
		name, err := u.FKPhpNameAffix(fk, false)
		if err != nil {
			return err
		}
		obj, err := sibling(u, gen.KindStubObject, fk.ForeignTable())
		if err != nil {
			return err
		}
		u.Script.Printf(`
	/**
	 * @var %s
	 */
	protected $a%s;
`, obj.ClassName(), name)
	}
	for _, fk := range u.Table().Referrers() {
		name, err := u.RefFKPhpNameAffix(fk, true)
		if err != nil {
			return err
		}
		obj, err := sibling(u, gen.KindStubObject, fk.Table())
		if err != nil {
			return err
		}
		u.Imports.DeclareClass("PropelObjectCollection")
		u.Script.Printf(`
	/**
	 * @var PropelObjectCollection|%[1]s[] Collection to store aggregation of %[1]s objects.
	 */
	protected $coll%[2]s;
`, obj.ClassName(), name)
	}
	return nil
}

func (Object) accessors(u *gen.Unit, c *gen.Column) error {
	peerConst, err := u.ColumnConstant(c, u.PeerClassName())
	if err != nil {
		return err
	}
	obj := u.ObjectClassName()
	u.Script.Printf(`
	/**
	 * Get the [%[1]s] column value.
	 *
	 * @return %[2]s
	 */
	public function get%[3]s()
	{
		return $this->%[1]s;
	}

	/**
	 * Set the value of [%[1]s] column.
	 *
	 * @param %[2]s $v new value
	 * @return %[4]s The current object (for fluent API support)
	 */
	public function set%[3]s($v)
	{
`, field(c), c.PhpType(), c.PhpName(), obj)
	if cast := castValue(c); cast != "" {
		u.Script.Printf("\t\tif ($v !== null) {\n\t\t\t$v = %s$v;\n\t\t}\n\n", cast)
	}
	u.Script.Printf(`		if ($this->%[1]s !== $v) {
			$this->%[1]s = $v;
			$this->modifiedColumns[] = %[2]s;
		}
`, field(c), peerConst)
	for _, fk := range u.Table().ForeignKeys {
		if len(fk.References) != 1 || fk.References[0].Local != c.Name {
			continue
		}
		name, err := u.FKPhpNameAffix(fk, false)
		if err != nil {
			return err
		}
		fc, ok := fk.ForeignTable().Column(fk.References[0].Foreign)
		if !ok {
			return gen.NewSchemaError(fk.ForeignTableName, fk.References[0].Foreign, "could not fetch foreign column", nil)
		}
		u.Script.Printf(`
		if ($this->a%[1]s !== null && $this->a%[1]s->get%[2]s() !== $v) {
			$this->a%[1]s = null;
		}
`, name, fc.PhpName())
	}
	u.Script.Printf("\n\t\treturn $this;\n\t} // set%s()\n", c.PhpName())
	return nil
}

func (Object) relation(u *gen.Unit, fk *gen.ForeignKey) error {
	name, err := u.FKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	back, err := u.RefFKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	ft := fk.ForeignTable()
	obj, err := sibling(u, gen.KindStubObject, ft)
	if err != nil {
		return err
	}
	query, err := sibling(u, gen.KindStubQuery, ft)
	if err != nil {
		return err
	}
	var (
		setNull, setValue []string
		notNull, pk       []string
	)
	for _, r := range fk.References {
		lc, ok := u.Table().Column(r.Local)
		if !ok {
			return gen.NewSchemaError(u.Table().Name, r.Local, "could not fetch local column", nil)
		}
		fc, ok := ft.Column(r.Foreign)
		if !ok {
			return gen.NewSchemaError(ft.Name, r.Foreign, "could not fetch foreign column", nil)
		}
		setNull = append(setNull, fmt.Sprintf("\t\t\t$this->set%s(NULL);\n", lc.PhpName()))
		setValue = append(setValue, fmt.Sprintf("\t\t\t$this->set%s($v->get%s());\n", lc.PhpName(), fc.PhpName()))
		notNull = append(notNull, fmt.Sprintf("$this->%s !== null", field(lc)))
		pk = append(pk, "$this->"+field(lc))
	}
	key := pk[0]
	if len(pk) > 1 {
		key = "array(" + strings.Join(pk, ", ") + ")"
	}
	u.Script.Printf(`
	/**
	 * Declares an association between this object and a %[1]s object.
	 *
	 * @param %[1]s $v
	 * @return %[2]s The current object (for fluent API support)
	 * @throws PropelException
	 */
	public function set%[3]s(%[1]s $v = null)
	{
		if ($v === null) {
%[4]s		} else {
%[5]s		}

		$this->a%[3]s = $v;

		// Add binding for other direction of this relationship.
		if ($v !== null) {
			$v->add%[6]s($this);
		}

		return $this;
	}

	/**
	 * Get the associated %[1]s object
	 *
	 * @param PropelPDO $con Optional Connection object.
	 * @return %[1]s The associated %[1]s object.
	 * @throws PropelException
	 */
	public function get%[3]s(PropelPDO $con = null)
	{
		if ($this->a%[3]s === null && (%[7]s)) {
			$this->a%[3]s = %[8]s::create()->findPk(%[9]s, $con);
		}

		return $this->a%[3]s;
	}
`, obj.ClassName(), u.ObjectClassName(), name, strings.Join(setNull, ""), strings.Join(setValue, ""), back, strings.Join(notNull, " && "), query.ClassName(), key)
	return nil
}

func (Object) referrer(u *gen.Unit, fk *gen.ForeignKey) error {
	single, err := u.RefFKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	plural, err := u.RefFKPhpNameAffix(fk, true)
	if err != nil {
		return err
	}
	forward, err := u.FKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	obj, err := sibling(u, gen.KindStubObject, fk.Table())
	if err != nil {
		return err
	}
	query, err := sibling(u, gen.KindStubQuery, fk.Table())
	if err != nil {
		return err
	}
	u.Script.Printf(`
	/**
	 * Gets an array of %[1]s objects which contain a foreign key that references this object.
	 *
	 * @param Criteria $criteria optional Criteria object to narrow the query
	 * @param PropelPDO $con optional connection object
	 * @return PropelObjectCollection|%[1]s[] List of %[1]s objects
	 * @throws PropelException
	 */
	public function get%[2]s($criteria = null, PropelPDO $con = null)
	{
		if (null === $this->coll%[2]s || null !== $criteria) {
			$this->coll%[2]s = %[3]s::create(null, $criteria)
				->filterBy%[4]s($this)
				->find($con);
		}

		return $this->coll%[2]s;
	}

	/**
	 * Method called to associate a %[1]s object to this object.
	 *
	 * @param %[1]s $l %[1]s
	 * @return %[5]s The current object (for fluent API support)
	 */
	public function add%[6]s(%[1]s $l)
	{
		if ($this->coll%[2]s === null) {
			$this->coll%[2]s = new PropelObjectCollection();
		}
		if (!$this->coll%[2]s->contains($l)) {
			$this->coll%[2]s[] = $l;
			$l->set%[4]s($this);
		}

		return $this;
	}
`, obj.ClassName(), plural, query.ClassName(), forward, u.ObjectClassName(), single)
	return nil
}

func (Object) primaryKey(u *gen.Unit) {
	pk := u.Table().PrimaryKey()
	u.Script.Printf(`
	/**
	 * Returns the primary key for this object (row).
	 * @return mixed
	 */
	public function getPrimaryKey()
	{
`)
	switch len(pk) {
	case 0:
		u.Script.Printf("\t\treturn null;\n")
	case 1:
		u.Script.Printf("\t\treturn $this->get%s();\n", pk[0].PhpName())
	default:
		u.Script.Printf("\t\t$pks = array();\n")
		for i, c := range pk {
			u.Script.Printf("\t\t$pks[%d] = $this->get%s();\n", i, c.PhpName())
		}
		u.Script.Printf("\n\t\treturn $pks;\n")
	}
	u.Script.Printf("\t}\n")
}

func (o Object) save(u *gen.Unit) error {
	peer := u.PeerClassName()
	u.Script.Printf(`
	/**
	 * Persists this object to the database.
	 *
	 * @param PropelPDO $con
	 * @return int The number of rows affected by this insert/update and any referring fk objects' save() operations.
	 * @throws PropelException
	 */
	public function save(PropelPDO $con = null)
	{
		if ($this->isDeleted()) {
			throw new PropelException("You cannot save an object that has been deleted.");
		}

		if ($con === null) {
			$con = Propel::getConnection(%[1]s::DATABASE_NAME, Propel::CONNECTION_WRITE);
		}

		$con->beginTransaction();
		$isInsert = $this->isNew();
		try {
			$ret = $this->preSave($con);
`, peer)
	hooks := []struct {
		head, hook, tab string
	}{
		{"", "preSave", "\t\t\t"},
		{"\t\t\tif ($isInsert) {\n\t\t\t\t$ret = $ret && $this->preInsert($con);\n", "preInsert", "\t\t\t\t"},
		{"\t\t\t} else {\n\t\t\t\t$ret = $ret && $this->preUpdate($con);\n", "preUpdate", "\t\t\t\t"},
		{"\t\t\t}\n\t\t\tif ($ret) {\n\t\t\t\t$affectedRows = $this->doSave($con);\n\t\t\t\tif ($isInsert) {\n\t\t\t\t\t$this->postInsert($con);\n", "postInsert", "\t\t\t\t\t"},
		{"\t\t\t\t} else {\n\t\t\t\t\t$this->postUpdate($con);\n", "postUpdate", "\t\t\t\t\t"},
		{"\t\t\t\t}\n\t\t\t\t$this->postSave($con);\n", "postSave", "\t\t\t\t"},
	}
	for _, h := range hooks {
		u.Script.WriteString(h.head)
		if err := u.ApplyBehaviorModifier(h.hook, gen.ObjectBuilderModifier, u.Script, h.tab); err != nil {
			return err
		}
	}
	if u.Table().HasPrimaryKey() {
		u.Script.Printf("\t\t\t\t%s::addInstanceToPool($this);\n", peer)
	}
	u.Script.Printf(`			} else {
				$affectedRows = 0;
			}
			$con->commit();

			return $affectedRows;
		} catch (Exception $e) {
			$con->rollBack();
			throw $e;
		}
	}
`)
	return o.doSave(u)
}

func (Object) doSave(u *gen.Unit) error {
	u.Script.Printf(`
	/**
	 * Performs the work of inserting or updating the row in the database.
	 *
	 * @param PropelPDO $con
	 * @return int The number of rows affected by this insert/update and any referring fk objects' save() operations.
	 * @throws PropelException
	 */
	protected function doSave(PropelPDO $con)
	{
		$affectedRows = 0;
`)
	for _, fk := range u.Table().ForeignKeys {
		name, err := u.FKPhpNameAffix(fk, false)
		if err != nil {
			return err
		}
		u.Script.Printf(`
		if ($this->a%[1]s !== null) {
			if ($this->a%[1]s->isModified() || $this->a%[1]s->isNew()) {
				$affectedRows += $this->a%[1]s->save($con);
			}
			$this->set%[1]s($this->a%[1]s);
		}
`, name)
	}
	basePeer := className(u, u.BasePeer(u.Table()))
	u.Script.Printf(`
		if ($this->isNew() || $this->isModified()) {
			$criteria = $this->buildCriteria();
			if ($this->isNew()) {
				%[1]s::doInsert($criteria, $con);
				$this->setNew(false);
			} else {
				%[1]s::doUpdate($this->buildPkeyCriteria(), $criteria, $con);
			}
			$affectedRows += 1;
			$this->resetModified();
		}
`, basePeer)
	for _, fk := range u.Table().Referrers() {
		name, err := u.RefFKPhpNameAffix(fk, true)
		if err != nil {
			return err
		}
		u.Script.Printf(`
		if ($this->coll%[1]s !== null) {
			foreach ($this->coll%[1]s as $referrerFK) {
				if (!$referrerFK->isDeleted()) {
					$affectedRows += $referrerFK->save($con);
				}
			}
		}
`, name)
	}
	u.Script.Printf("\n\t\treturn $affectedRows;\n\t}\n")
	return writeCriteria(u)
}

// writeCriteria writes buildCriteria and buildPkeyCriteria.
func writeCriteria(u *gen.Unit) error {
	peer := u.PeerClassName()
	u.Script.Printf(`
	/**
	 * Build a Criteria object containing the values of all modified columns in this object.
	 *
	 * @return Criteria The Criteria object containing all modified values.
	 */
	public function buildCriteria()
	{
		$criteria = new Criteria(%s::DATABASE_NAME);
`, peer)
	for _, c := range u.Table().Columns {
		cc, err := u.ColumnConstant(c, peer)
		if err != nil {
			return err
		}
		u.Script.Printf("\t\tif ($this->isColumnModified(%[1]s)) $criteria->add(%[1]s, $this->%[2]s);\n", cc, field(c))
	}
	u.Script.Printf(`
		return $criteria;
	}

	/**
	 * Builds a Criteria object containing the primary key for this object.
	 *
	 * @return Criteria The Criteria object containing value(s) for primary key(s).
	 */
	public function buildPkeyCriteria()
	{
		$criteria = new Criteria(%s::DATABASE_NAME);
`, peer)
	for _, c := range u.Table().PrimaryKey() {
		cc, err := u.ColumnConstant(c, peer)
		if err != nil {
			return err
		}
		u.Script.Printf("\t\t$criteria->add(%s, $this->%s);\n", cc, field(c))
	}
	u.Script.Printf("\n\t\treturn $criteria;\n\t}\n")
	return nil
}

func (Object) delete(u *gen.Unit) error {
	u.Script.Printf(`
	/**
	 * Removes this object from datastore and sets delete attribute.
	 *
	 * @param PropelPDO $con
	 * @return void
	 * @throws PropelException
	 */
	public function delete(PropelPDO $con = null)
	{
		if ($this->isDeleted()) {
			throw new PropelException("This object has already been deleted.");
		}

		if ($con === null) {
			$con = Propel::getConnection(%[1]s::DATABASE_NAME, Propel::CONNECTION_WRITE);
		}

		$con->beginTransaction();
		try {
			$deleteQuery = %[2]s::create()
				->filterByPrimaryKey($this->getPrimaryKey());
			$ret = $this->preDelete($con);
`, u.PeerClassName(), u.QueryClassName())
	if err := u.ApplyBehaviorModifier("preDelete", gen.ObjectBuilderModifier, u.Script, "\t\t\t"); err != nil {
		return err
	}
	u.Script.Printf(`			if ($ret) {
				$deleteQuery->delete($con);
				$this->postDelete($con);
`)
	if err := u.ApplyBehaviorModifier("postDelete", gen.ObjectBuilderModifier, u.Script, "\t\t\t\t"); err != nil {
		return err
	}
	u.Script.Printf(`				$con->commit();
				$this->setDeleted(true);
			} else {
				$con->commit();
			}
		} catch (Exception $e) {
			$con->rollBack();
			throw $e;
		}
	}
`)
	return nil
}

// field returns the name of the PHP property holding the value of c.
func field(c *gen.Column) string {
	return strings.ToLower(c.Name)
}
