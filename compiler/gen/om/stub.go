package om

import (
	"fmt"

	"github.com/syssam/omgen/compiler/gen"
)

// stubKind holds what the user-editable classes share: each extends the
// base class of another kind and is never overwritten.
type stubKind struct {
	kind, base, summary string
}

// Stub implements gen.Stub.
func (stubKind) Stub() bool { return true }

// Includes implements gen.IncludeAdder.
func (s stubKind) Includes(u *gen.Unit) error {
	base, err := u.For(s.base)
	if err != nil {
		return err
	}
	u.Script.Printf("require_once '%s';\n\n", base.ClassFilePath())
	return nil
}

// ClassOpen implements gen.Artifact.
func (s stubKind) ClassOpen(u *gen.Unit) error {
	base, err := sibling(u, s.base, nil)
	if err != nil {
		return err
	}
	t := u.Table()
	u.Script.Printf(`/**
 * %s
 *
 * You should add additional methods to this class to meet the
 * application requirements.  This class will only be generated as
 * long as it does not already exist in the output directory.
 *
 * @package    %s
 */
class %s extends %s
{
`, fmt.Sprintf(s.summary, t.Name), docPackage(u.Builder), u.ClassName(), base.ClassName())
	return nil
}

// ClassBody implements gen.Artifact.
func (stubKind) ClassBody(*gen.Unit) error { return nil }

// ClassClose implements gen.Artifact.
func (stubKind) ClassClose(u *gen.Unit) error {
	u.Script.Printf("}\n")
	return nil
}

// StubObject builds the user object class of a table (e.g. Book).
type StubObject struct{ stubKind }

// StubQuery builds the user query class of a table (e.g. BookQuery).
type StubQuery struct{ stubKind }

// StubPeer builds the user peer class of a table (e.g. BookPeer).
type StubPeer struct{ stubKind }

var (
	stubObject = stubKind{gen.KindStubObject, gen.KindObject, "Skeleton subclass for representing a row from the '%s' table."}
	stubQuery  = stubKind{gen.KindStubQuery, gen.KindQuery, "Skeleton subclass for performing query and update operations on the '%s' table."}
	stubPeer   = stubKind{gen.KindStubPeer, gen.KindPeer, "Skeleton subclass for performing query and update operations on the '%s' table."}
)

// Kind implements gen.Artifact.
func (StubObject) Kind() string { return stubObject.kind }

// UnprefixedClassName implements gen.Artifact.
func (StubObject) UnprefixedClassName(t *gen.Table) string { return t.PhpName() }

// Kind implements gen.Artifact.
func (StubQuery) Kind() string { return stubQuery.kind }

// UnprefixedClassName implements gen.Artifact.
func (StubQuery) UnprefixedClassName(t *gen.Table) string { return t.PhpName() + "Query" }

// Kind implements gen.Artifact.
func (StubPeer) Kind() string { return stubPeer.kind }

// UnprefixedClassName implements gen.Artifact.
func (StubPeer) UnprefixedClassName(t *gen.Table) string { return t.PhpName() + "Peer" }
