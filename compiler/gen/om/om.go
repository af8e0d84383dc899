// Package om implements the artifact kinds of the object model: the base
// object, query, peer and table map classes of a table, and the stubs users
// extend.
package om

import (
	"fmt"
	"strings"

	"github.com/syssam/omgen/compiler/gen"
)

// Kinds returns every artifact kind of the object model, in generation order.
func Kinds() []gen.Artifact {
	return []gen.Artifact{
		Object{},
		Query{},
		Peer{},
		TableMap{},
		StubObject{stubObject},
		StubQuery{stubQuery},
		StubPeer{stubPeer},
	}
}

// baseKind holds what the base classes living in the om sub-package share.
type baseKind struct{}

func (baseKind) Subpackage() string { return "om" }

func (baseKind) SubNamespace(c *gen.Config) string { return c.NamespaceOm() }

// sibling returns the builder of kind for the table of u (or of t when set),
// and declares its class in the registry.
func sibling(u *gen.Unit, kind string, t *gen.Table) (*gen.Builder, error) {
	if t == nil {
		t = u.Table()
	}
	b, err := u.ForTable(kind, t)
	if err != nil {
		return nil, err
	}
	u.Imports.DeclareClassFromBuilder(b)
	return b, nil
}

// className returns the short name of a parent class given as a dotted path
// (propel.om.BaseObject), a qualified name (Foo\Bar) or a bare name, and
// declares it.
func className(u *gen.Unit, class string) string {
	switch {
	case strings.Contains(class, `\`):
		u.Imports.DeclareClass(class)
		class = strings.Trim(class, `\`)
		return class[strings.LastIndex(class, `\`)+1:]
	case strings.Contains(class, "."):
		class = class[strings.LastIndex(class, ".")+1:]
	}
	u.Imports.DeclareClass(class)
	return class
}

// includePath maps a dotted class path to the file required by includes.
func includePath(classpath string) string {
	return gen.PackagePath(classpath) + ".php"
}

// quote returns s as a single-quoted PHP string.
func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// docPackage returns the @package tag value of the class built by b.
func docPackage(b *gen.Builder) string {
	if pkg := b.Package(); pkg != "" {
		return "propel.generator." + pkg
	}
	return "propel.generator"
}

// classDoc writes the doc block of a class.
func classDoc(u *gen.Unit, summary string) {
	t := u.Table()
	fmt.Fprintf(u.Script, "/**\n * %s\n *\n", summary)
	if t.Description != "" {
		fmt.Fprintf(u.Script, " * %s\n *\n", t.Description)
	}
	fmt.Fprintf(u.Script, " * @package    %s\n */\n", docPackage(u.Builder))
}

// closeClass writes the closing brace and fires the filter hook of the class.
func closeClass(u *gen.Unit, hook string, cat gen.ModifierCategory) error {
	fmt.Fprintf(u.Script, "\n} // %s\n", u.ClassName())
	return u.ApplyBehaviorModifier(hook, cat, u.Script, "")
}

// castValue returns the PHP cast applied by setters for column c.
func castValue(c *gen.Column) string {
	switch c.PhpType() {
	case "int":
		return "(int) "
	case "boolean":
		return "(boolean) "
	case "double":
		return "(double) "
	case "string":
		return "(string) "
	default:
		return ""
	}
}
