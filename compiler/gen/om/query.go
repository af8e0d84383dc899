package om

import (
	"fmt"
	"strings"

	"github.com/syssam/omgen/compiler/gen"
)

// Query builds the base query class of a table (e.g. BaseBookQuery).
type Query struct{ baseKind }

// Kind implements gen.Artifact.
func (Query) Kind() string { return gen.KindQuery }

// UnprefixedClassName implements gen.Artifact.
func (Query) UnprefixedClassName(t *gen.Table) string { return "Base" + t.PhpName() + "Query" }

// Includes implements gen.IncludeAdder.
func (Query) Includes(u *gen.Unit) error {
	u.Script.Printf("require_once 'propel/query/ModelCriteria.php';\n\n")
	return nil
}

// ClassOpen implements gen.Artifact.
func (Query) ClassOpen(u *gen.Unit) error {
	u.Imports.DeclareClasses("ModelCriteria", "Criteria", "PropelPDO")
	classDoc(u, fmt.Sprintf("Base class that represents a query for the '%s' table.", u.Table().Name))
	u.Script.Printf("abstract class %s extends ModelCriteria\n{\n", u.ClassName())
	return nil
}

// ClassBody implements gen.Artifact.
func (q Query) ClassBody(u *gen.Unit) error {
	if err := u.ApplyBehaviorModifier("queryAttributes", gen.QueryBuilderModifier, u.Script, "\t"); err != nil {
		return err
	}
	obj, err := sibling(u, gen.KindStubObject, nil)
	if err != nil {
		return err
	}
	query, err := sibling(u, gen.KindStubQuery, nil)
	if err != nil {
		return err
	}
	if _, err := sibling(u, gen.KindStubPeer, nil); err != nil {
		return err
	}
	db := ""
	if d := u.Database(); d != nil {
		db = d.Name
	}
	u.Script.Printf(`
	/**
	 * Initializes internal state of %[1]s object.
	 *
	 * @param string $dbName The database name
	 * @param string $modelName The phpName of a model, e.g. 'Book'
	 * @param string $modelAlias The alias for the model in this query, e.g. 'b'
	 */
	public function __construct($dbName = %[2]s, $modelName = %[3]s, $modelAlias = null)
	{
		parent::__construct($dbName, $modelName, $modelAlias);
	}

	/**
	 * Returns a new %[4]s object.
	 *
	 * @param string $modelAlias The alias of a model in the query
	 * @param %[4]s|Criteria $criteria Optional Criteria to build the query from
	 *
	 * @return %[4]s
	 */
	public static function create($modelAlias = null, $criteria = null)
	{
		if ($criteria instanceof %[4]s) {
			return $criteria;
		}
		%[5]s
		if (null !== $modelAlias) {
			$query->setModelAlias($modelAlias);
		}
		if ($criteria instanceof Criteria) {
			$query->mergeWith($criteria);
		}

		return $query;
	}
`, u.ClassName(), quote(db), quote(obj.FullyQualifiedClassName()), query.ClassName(), u.ObjectInstanceCreationCode("$query", query.ClassName()))
	if err := q.primaryKey(u, obj.ClassName()); err != nil {
		return err
	}
	for _, c := range u.Table().Columns {
		if err := q.filterByColumn(u, c); err != nil {
			return err
		}
	}
	for _, fk := range u.Table().ForeignKeys {
		if err := q.filterByRelation(u, fk); err != nil {
			return err
		}
	}
	for _, fk := range u.Table().Referrers() {
		if err := q.filterByReferrer(u, fk); err != nil {
			return err
		}
	}
	if u.HasBehaviorModifier("preSelectQuery", gen.QueryBuilderModifier) {
		u.Script.Printf(`
	/**
	 * Code to execute before every SELECT statement
	 *
	 * @param PropelPDO $con The connection object used by the query
	 */
	protected function preSelect(PropelPDO $con)
	{
`)
		if err := u.ApplyBehaviorModifier("preSelectQuery", gen.QueryBuilderModifier, u.Script, "\t\t"); err != nil {
			return err
		}
		u.Script.Printf("\t}\n")
	}
	return u.ApplyBehaviorModifier("queryMethods", gen.QueryBuilderModifier, u.Script, "\t")
}

// ClassClose implements gen.Artifact.
func (Query) ClassClose(u *gen.Unit) error {
	return closeClass(u, "queryFilter", gen.QueryBuilderModifier)
}

func (Query) primaryKey(u *gen.Unit, obj string) error {
	pk := u.Table().PrimaryKey()
	if len(pk) == 0 {
		return nil
	}
	peer := u.PeerClassName()
	u.Script.Printf(`
	/**
	 * Find object by primary key.
	 *
	 * @param mixed $key Primary key to use for the query
	 * @param PropelPDO $con an optional connection object
	 *
	 * @return %[1]s|%[1]s[]|mixed the result, formatted by the current formatter
	 */
	public function findPk($key, $con = null)
	{
		if ($key === null) {
			return null;
		}
		if ((null !== ($obj = %[2]s::getInstanceFromPool(%[3]s))) && !$this->formatter) {
			// the object is already in the instance pool
			return $obj;
		}

		return $this->filterByPrimaryKey($key)->findOne($con);
	}

	/**
	 * Filter the query by primary key
	 *
	 * @param mixed $key Primary key to use for the query
	 *
	 * @return %[4]s The current query, for fluid interface
	 */
	public function filterByPrimaryKey($key)
	{
`, obj, peer, poolKey(len(pk)), u.QueryClassName())
	if len(pk) == 1 {
		cc, err := u.ColumnConstant(pk[0], peer)
		if err != nil {
			return err
		}
		u.Script.Printf("\n\t\treturn $this->addUsingAlias(%s, $key, Criteria::EQUAL);\n\t}\n", cc)
		return nil
	}
	for i, c := range pk {
		cc, err := u.ColumnConstant(c, peer)
		if err != nil {
			return err
		}
		u.Script.Printf("\t\t$this->addUsingAlias(%s, $key[%d], Criteria::EQUAL);\n", cc, i)
	}
	u.Script.Printf("\n\t\treturn $this;\n\t}\n")
	return nil
}

// poolKey returns the expression used as instance pool key.
func poolKey(n int) string {
	if n == 1 {
		return "(string) $key"
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("(string) $key[%d]", i)
	}
	return "serialize(array(" + strings.Join(parts, ", ") + "))"
}

func (Query) filterByColumn(u *gen.Unit, c *gen.Column) error {
	cc, err := u.ColumnConstant(c, u.PeerClassName())
	if err != nil {
		return err
	}
	u.Script.Printf(`
	/**
	 * Filter the query on the %[1]s column
	 *
	 * @param %[2]s|array $%[3]s The value to use as filter.
	 * @param string $comparison Operator to use for the column comparison, defaults to Criteria::EQUAL
	 *
	 * @return %[4]s The current query, for fluid interface
	 */
	public function filterBy%[5]s($%[3]s = null, $comparison = null)
	{
		if (is_array($%[3]s) && null === $comparison) {
			$comparison = Criteria::IN;
		}

		return $this->addUsingAlias(%[6]s, $%[3]s, $comparison);
	}
`, c.Name, c.PhpType(), gen.Camel(c.Name), u.QueryClassName(), c.PhpName(), cc)
	return nil
}

func (Query) filterByRelation(u *gen.Unit, fk *gen.ForeignKey) error {
	name, err := u.FKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	ft := fk.ForeignTable()
	obj, err := sibling(u, gen.KindStubObject, ft)
	if err != nil {
		return err
	}
	var conds []string
	for _, r := range fk.References {
		lc, ok := u.Table().Column(r.Local)
		if !ok {
			return gen.NewSchemaError(u.Table().Name, r.Local, "could not fetch local column", nil)
		}
		fc, ok := ft.Column(r.Foreign)
		if !ok {
			return gen.NewSchemaError(ft.Name, r.Foreign, "could not fetch foreign column", nil)
		}
		cc, err := u.ColumnConstant(lc, u.PeerClassName())
		if err != nil {
			return err
		}
		conds = append(conds, fmt.Sprintf("->addUsingAlias(%s, $%s->get%s(), $comparison)", cc, lcfirst(obj.ClassName()), fc.PhpName()))
	}
	return filterAndJoin(u, name, obj.ClassName(), conds, u.JoinType(fk))
}

func (Query) filterByReferrer(u *gen.Unit, fk *gen.ForeignKey) error {
	name, err := u.RefFKPhpNameAffix(fk, false)
	if err != nil {
		return err
	}
	obj, err := sibling(u, gen.KindStubObject, fk.Table())
	if err != nil {
		return err
	}
	var conds []string
	for _, r := range fk.References {
		lc, ok := fk.Table().Column(r.Local)
		if !ok {
			return gen.NewSchemaError(fk.TableName(), r.Local, "could not fetch local column", nil)
		}
		fc, ok := u.Table().Column(r.Foreign)
		if !ok {
			return gen.NewSchemaError(u.Table().Name, r.Foreign, "could not fetch foreign column", nil)
		}
		cc, err := u.ColumnConstant(fc, u.PeerClassName())
		if err != nil {
			return err
		}
		conds = append(conds, fmt.Sprintf("->addUsingAlias(%s, $%s->get%s(), $comparison)", cc, lcfirst(obj.ClassName()), lc.PhpName()))
	}
	return filterAndJoin(u, name, obj.ClassName(), conds, "Criteria::LEFT_JOIN")
}

// filterAndJoin writes the filterByX and joinX methods of a relation.
func filterAndJoin(u *gen.Unit, relation, class string, conds []string, joinType string) error {
	arg := lcfirst(class)
	u.Script.Printf(`
	/**
	 * Filter the query by a related %[1]s object
	 *
	 * @param %[1]s $%[2]s The related object to use as filter
	 * @param string $comparison Operator to use for the column comparison, defaults to Criteria::EQUAL
	 *
	 * @return %[3]s The current query, for fluid interface
	 */
	public function filterBy%[4]s($%[2]s, $comparison = null)
	{
		return $this
			%[5]s;
	}

	/**
	 * Adds a JOIN clause to the query using the %[4]s relation
	 *
	 * @param string $relationAlias optional alias for the relation
	 * @param string $joinType Accepted values are null, 'left join', 'right join', 'inner join'
	 *
	 * @return %[3]s The current query, for fluid interface
	 */
	public function join%[4]s($relationAlias = null, $joinType = %[6]s)
	{
		$tableMap = $this->getTableMap();
		$relationMap = $tableMap->getRelation('%[4]s');

		$join = new ModelJoin();
		$join->setJoinType($joinType);
		$join->setRelationMap($relationMap, $this->useAliasInSQL ? $this->getModelAlias() : null, $relationAlias);
		if ($relationAlias) {
			$this->addAlias($relationAlias, $relationMap->getRightTable()->getName());
			$this->addJoinObject($join, $relationAlias);
		} else {
			$this->addJoinObject($join, '%[4]s');
		}

		return $this;
	}
`, class, arg, u.QueryClassName(), relation, strings.Join(conds, "\n\t\t\t"), joinType)
	u.Imports.DeclareClass("ModelJoin")
	return nil
}

func lcfirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
