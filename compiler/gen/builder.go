package gen

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Artifact kinds known by the engine. Concrete kinds are registered by the
// om package.
const (
	KindObject     = "object"
	KindQuery      = "query"
	KindPeer       = "peer"
	KindTableMap   = "tablemap"
	KindStubObject = "stub-object"
	KindStubQuery  = "stub-query"
	KindStubPeer   = "stub-peer"
)

type (
	// Artifact is one kind of generated class. It decides what goes in the
	// class while the Builder sequences the generation and resolves names.
	Artifact interface {
		// Kind returns the unique name of the artifact kind.
		Kind() string
		// UnprefixedClassName returns the class name for table t, without
		// the configured class prefix.
		UnprefixedClassName(t *Table) string
		// ClassOpen writes the class declaration and the opening brace.
		ClassOpen(u *Unit) error
		// ClassBody writes the class members.
		ClassBody(u *Unit) error
		// ClassClose writes the closing brace and trailing content.
		ClassClose(u *Unit) error
	}

	// IncludeAdder is implemented by artifacts that emit include statements
	// when the addIncludes build property is set.
	IncludeAdder interface {
		Includes(u *Unit) error
	}

	// Validator is implemented by artifacts that reject tables which would
	// produce invalid code. It runs before any text is generated.
	Validator interface {
		Validate(b *Builder) error
	}

	// Subpackager is implemented by artifacts living in a sub-package of
	// the table package (e.g. "om" or "map").
	Subpackager interface {
		Subpackage() string
	}

	// SubNamespacer is implemented by artifacts living in a sub-namespace
	// of the table namespace.
	SubNamespacer interface {
		SubNamespace(c *Config) string
	}

	// Stub is implemented by artifacts that users edit. Stubs are never
	// overwritten once written.
	Stub interface {
		Stub() bool
	}
)

// Builder builds one artifact kind for one table. It holds no per-build
// state and may be shared by concurrent builds.
type Builder struct {
	config   *Config
	table    *Table
	artifact Artifact
	kinds    map[string]Artifact
}

// Unit is the state of a single Build: the script being assembled and the
// classes it references.
type Unit struct {
	*Builder
	Script  *Script
	Imports *Imports
}

// NewBuilder returns a builder of artifact a for table t. The kinds are the
// sibling artifacts resolvable through For.
func NewBuilder(c *Config, t *Table, a Artifact, kinds ...Artifact) (*Builder, error) {
	if t == nil {
		return nil, NewArgumentError("table", "no table specified")
	}
	if a == nil {
		return nil, NewArgumentError("artifact", "no artifact specified")
	}
	if c == nil {
		c = DefaultConfig()
	}
	b := &Builder{
		config:   c,
		table:    t,
		artifact: a,
		kinds:    make(map[string]Artifact, len(kinds)+1),
	}
	for _, k := range kinds {
		b.kinds[k.Kind()] = k
	}
	b.kinds[a.Kind()] = a
	return b, nil
}

// Table returns the table being built.
func (b *Builder) Table() *Table { return b.table }

// Database returns the database of the table.
func (b *Builder) Database() *Database { return b.table.Database() }

// Config returns the codegen configuration.
func (b *Builder) Config() *Config { return b.config }

// Artifact returns the artifact kind being built.
func (b *Builder) Artifact() Artifact { return b.artifact }

// Logger returns the logger of the configuration, scoped to the build.
func (b *Builder) Logger() *slog.Logger {
	return b.config.logger().With("table", b.table.Name, "artifact", b.artifact.Kind())
}

// Pluralizer returns the configured pluralizer.
func (b *Builder) Pluralizer() Pluralizer { return b.config.pluralizer() }

// For returns the builder of another artifact kind for the same table.
func (b *Builder) For(kind string) (*Builder, error) {
	return b.ForTable(kind, b.table)
}

// ForTable returns the builder of an artifact kind for table t.
func (b *Builder) ForTable(kind string, t *Table) (*Builder, error) {
	a, ok := b.kinds[kind]
	if !ok {
		return nil, NewConfigError("Kinds", kind, "artifact kind is not registered")
	}
	return &Builder{config: b.config, table: t, artifact: a, kinds: b.kinds}, nil
}

// Build generates the source text of the artifact.
func (b *Builder) Build() (string, error) {
	if v, ok := b.artifact.(Validator); ok {
		if err := v.Validate(b); err != nil {
			return "", err
		}
	}
	u := &Unit{Builder: b, Script: &Script{}, Imports: NewImports(b.Namespace())}
	if b.config.AddIncludes() {
		if ia, ok := b.artifact.(IncludeAdder); ok {
			if err := ia.Includes(u); err != nil {
				return "", err
			}
		}
	}
	for _, stage := range []func(*Unit) error{b.artifact.ClassOpen, b.artifact.ClassBody, b.artifact.ClassClose} {
		if err := stage(u); err != nil {
			return "", err
		}
	}
	script := u.Script.String()
	if use := u.Imports.UseStatements(b.Namespace()); use != "" {
		script = use + script
	}
	if ns := u.Imports.NamespaceStatement(); ns != "" {
		script = ns + script
	}
	return Clean("<?php\n\n" + script), nil
}

// IsStub reports if the artifact is a user-editable stub.
func (b *Builder) IsStub() bool {
	s, ok := b.artifact.(Stub)
	return ok && s.Stub()
}

// =============================================================================
// Names
// =============================================================================

// UnprefixedClassName returns the class name without the configured prefix.
func (b *Builder) UnprefixedClassName() string {
	return b.artifact.UnprefixedClassName(b.table)
}

// ClassName returns the prefixed class name.
func (b *Builder) ClassName() string {
	return b.config.ClassPrefix() + b.UnprefixedClassName()
}

// FullyQualifiedClassName returns the class name qualified by its namespace.
func (b *Builder) FullyQualifiedClassName() string {
	if ns := b.Namespace(); ns != "" {
		return ns + `\` + b.ClassName()
	}
	return b.ClassName()
}

// Namespace returns the namespace of the class: the table namespace, else
// the database namespace, followed by the artifact sub-namespace.
func (b *Builder) Namespace() string {
	ns := b.table.Namespace
	if ns == "" && b.table.Database() != nil {
		ns = b.table.Database().Namespace
	}
	if ns == "" {
		return ""
	}
	if sn, ok := b.artifact.(SubNamespacer); ok {
		if sub := sn.SubNamespace(b.config); sub != "" {
			ns += `\` + sub
		}
	}
	return ns
}

// PackageName returns the package of the table: its own, else the database
// one, else the targetPackage build property. It may be empty.
func (b *Builder) PackageName() string {
	if b.table.Package != "" {
		return b.table.Package
	}
	if db := b.table.Database(); db != nil && db.Package != "" {
		return db.Package
	}
	return b.config.TargetPackage()
}

// RequirePackage is like PackageName but fails if no package is resolved.
func (b *Builder) RequirePackage() (string, error) {
	pkg := b.PackageName()
	if pkg == "" {
		return "", NewConfigError(PropTargetPackage, nil, fmt.Sprintf("no package resolved for table %q", b.table.Name))
	}
	return pkg, nil
}

// Package returns the package of the class, including the artifact sub-package.
func (b *Builder) Package() string {
	pkg := b.PackageName()
	if sp, ok := b.artifact.(Subpackager); ok {
		if sub := sp.Subpackage(); sub != "" {
			if pkg == "" {
				return sub
			}
			return pkg + "." + sub
		}
	}
	return pkg
}

var subpackageSuffix = regexp.MustCompile(`\.(map|om)$`)

// PackagePath returns the filesystem path of the class package.
func (b *Builder) PackagePath() string {
	return PackagePath(b.Package())
}

// PackagePath maps a dotted package to a path. Packages that already
// contain a "/" only get their trailing .om or .map token converted.
func PackagePath(pkg string) string {
	if strings.Contains(pkg, "/") {
		return subpackageSuffix.ReplaceAllString(pkg, "/$1")
	}
	pkg = strings.TrimPrefix(pkg, ".")
	return strings.ReplaceAll(pkg, ".", "/")
}

// Classpath returns the dotted path of the class (e.g. bookstore.om.BaseBook).
func (b *Builder) Classpath() string {
	if pkg := b.Package(); pkg != "" {
		return pkg + "." + b.ClassName()
	}
	return b.ClassName()
}

// ClassFilePath returns the path of the class file, relative to the target.
func (b *Builder) ClassFilePath() string {
	return b.config.filePath()(b.PackagePath(), b.ClassName())
}

// ObjectClassName returns the stub object class name of the table.
func (b *Builder) ObjectClassName() string {
	return b.siblingClassName(KindStubObject, "")
}

// QueryClassName returns the stub query class name of the table.
func (b *Builder) QueryClassName() string {
	return b.siblingClassName(KindStubQuery, "Query")
}

// PeerClassName returns the stub peer class name of the table.
func (b *Builder) PeerClassName() string {
	return b.siblingClassName(KindStubPeer, "Peer")
}

func (b *Builder) siblingClassName(kind, suffix string) string {
	if s, err := b.For(kind); err == nil {
		return s.ClassName()
	}
	return b.config.ClassPrefix() + b.table.PhpName() + suffix
}

// ColumnConstant returns the constant naming the column. With an empty owner
// it returns the prefixed constant name used inside the peer itself,
// otherwise Owner::CONST.
func (b *Builder) ColumnConstant(c *Column, owner string) (string, error) {
	if c == nil {
		return "", NewArgumentError("column", "no column specified")
	}
	if owner == "" {
		return b.config.ClassPrefix() + c.ConstantName(), nil
	}
	name := c.Name
	if c.PeerName != "" {
		name = c.PeerName
	}
	return owner + "::" + strings.ToUpper(name), nil
}

// BasePeer returns the dotted path of the base peer class of t.
func (b *Builder) BasePeer(t *Table) string {
	if t.BasePeer != "" {
		return t.BasePeer
	}
	if db := t.Database(); db != nil && db.BasePeer != "" {
		return db.BasePeer
	}
	return b.config.BasePeer()
}

// JoinType returns the join type used when joining the relation of fk.
func (b *Builder) JoinType(fk *ForeignKey) string {
	switch {
	case fk.DefaultJoin != "":
		return "'" + fk.DefaultJoin + "'"
	case fk.LocalColumnsRequired():
		return "Criteria::INNER_JOIN"
	default:
		return "Criteria::LEFT_JOIN"
	}
}

// ObjectInstanceCreationCode returns the statement creating a new object.
func (b *Builder) ObjectInstanceCreationCode(obj, class string) string {
	return fmt.Sprintf("%s = new %s();", obj, class)
}

// FKPhpNameAffix returns the relation name of fk on its own table.
func (b *Builder) FKPhpNameAffix(fk *ForeignKey, plural bool) (string, error) {
	return ForeignKeyName(fk, plural, b.Pluralizer())
}

// RefFKPhpNameAffix returns the relation name of fk on the referenced table.
func (b *Builder) RefFKPhpNameAffix(fk *ForeignKey, plural bool) (string, error) {
	return ReferrerName(fk, plural, b.Pluralizer())
}
