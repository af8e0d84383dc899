package gen

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Imports records the classes referenced by one artifact while its body is
// assembled, keyed by namespace ("" is the root namespace). A new value is
// created for every Build and dropped once the artifact is emitted.
type Imports struct {
	ns      string
	classes map[string][]string
}

// NewImports returns an empty registry for an artifact living in namespace ns.
func NewImports(ns string) *Imports {
	return &Imports{ns: ns, classes: make(map[string][]string)}
}

// Namespace returns the namespace of the artifact owning the registry.
func (i *Imports) Namespace() string { return i.ns }

// DeclareClassNamespace records the short class name under ns. Declaring the
// same class twice is a no-op.
func (i *Imports) DeclareClassNamespace(class, ns string) {
	if slices.Contains(i.classes[ns], class) {
		return
	}
	i.classes[ns] = append(i.classes[ns], class)
}

// DeclareClass records a fully qualified class name (e.g. Foo\Bar\Baz).
// Names without a separator are declared in the root namespace.
func (i *Imports) DeclareClass(fqcn string) {
	fqcn = strings.Trim(fqcn, `\`)
	if idx := strings.LastIndex(fqcn, `\`); idx >= 0 {
		i.DeclareClassNamespace(fqcn[idx+1:], fqcn[:idx])
		return
	}
	i.DeclareClassNamespace(fqcn, "")
}

// DeclareClasses declares each of the given fully qualified names in order.
func (i *Imports) DeclareClasses(names ...string) {
	for _, name := range names {
		i.DeclareClass(name)
	}
}

// DeclareClassFromBuilder declares the class built by b under its namespace.
func (i *Imports) DeclareClassFromBuilder(b *Builder) {
	i.DeclareClassNamespace(b.ClassName(), b.Namespace())
}

// DeclaredClasses returns the classes declared under ns, in declaration order.
func (i *Imports) DeclaredClasses(ns string) []string {
	return slices.Clone(i.classes[ns])
}

// All returns a copy of the whole namespace to classes mapping.
func (i *Imports) All() map[string][]string {
	all := make(map[string][]string, len(i.classes))
	for ns, classes := range i.classes {
		all[ns] = slices.Clone(classes)
	}
	return all
}

// NamespaceStatement returns the namespace declaration of the artifact, or ""
// for artifacts in the root namespace.
func (i *Imports) NamespaceStatement() string {
	if i.ns == "" {
		return ""
	}
	return fmt.Sprintf("namespace %s;\n\n", i.ns)
}

// UseStatements returns one use line per declared class, namespaces and
// classes sorted lexicographically. Classes of the ignored namespace are
// skipped. Root classes produce "use Class;" unless the root namespace is
// the ignored one.
func (i *Imports) UseStatements(ignored string) string {
	var b strings.Builder
	for _, ns := range slices.Sorted(maps.Keys(i.classes)) {
		if ns == ignored {
			continue
		}
		for _, class := range slices.Sorted(slices.Values(i.classes[ns])) {
			if ns == "" {
				fmt.Fprintf(&b, "use %s;\n", class)
				continue
			}
			fmt.Fprintf(&b, "use %s\\%s;\n", ns, class)
		}
	}
	return b.String()
}
