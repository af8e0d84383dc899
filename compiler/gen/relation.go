package gen

import (
	"fmt"
	"slices"
	"strings"
)

const relatedBy = "RelatedBy"

// ForeignKeyName returns the name used by the accessors of fk on its own
// table (e.g. getAuthorRelatedByEditorId). A "RelatedBy" suffix built from the
// local columns is appended when the table has several keys to the foreign
// table, when the foreign table has a key back, or when fk is a self reference.
func ForeignKeyName(fk *ForeignKey, plural bool, p Pluralizer) (string, error) {
	if fk.PhpName != "" {
		if plural {
			return p.Plural(fk.PhpName), nil
		}
		return fk.PhpName, nil
	}
	ft, err := foreignTable(fk)
	if err != nil {
		return "", err
	}
	name := ft.PhpName()
	if plural {
		name = p.Plural(name)
	}
	suffix, err := relatedBySuffix(fk, ft)
	if err != nil {
		return "", err
	}
	return name + suffix, nil
}

// ReferrerName returns the name used by the accessors of fk on the
// referenced table (e.g. getBooksRelatedByEditorId on the author). For self
// references the suffix is built from the foreign columns, followed by the
// position of fk among the self references when there are several.
func ReferrerName(fk *ForeignKey, plural bool, p Pluralizer) (string, error) {
	if fk.RefPhpName != "" {
		if plural {
			return p.Plural(fk.RefPhpName), nil
		}
		return fk.RefPhpName, nil
	}
	ft, err := foreignTable(fk)
	if err != nil {
		return "", err
	}
	name := fk.Table().PhpName()
	if plural {
		name = p.Plural(name)
	}
	suffix, err := refRelatedBySuffix(fk, ft)
	if err != nil {
		return "", err
	}
	return name + suffix, nil
}

func foreignTable(fk *ForeignKey) (*Table, error) {
	ft := fk.ForeignTable()
	if ft == nil {
		return nil, NewSchemaError(fk.TableName(), "", fmt.Sprintf("could not fetch foreign table %q", fk.ForeignTableName), nil)
	}
	return ft, nil
}

func relatedBySuffix(fk *ForeignKey, ft *Table) (string, error) {
	t := fk.Table()
	ambiguous := len(t.ForeignKeysReferencingTable(ft.Name)) > 1 ||
		len(ft.ForeignKeysReferencingTable(t.Name)) > 0 ||
		fk.IsSelfReference()
	var b strings.Builder
	for _, r := range fk.References {
		c, ok := t.Column(r.Local)
		if !ok {
			return "", columnNotFound(t, r.Local)
		}
		if ambiguous {
			b.WriteString(c.PhpName())
		}
	}
	return withRelatedBy(b.String()), nil
}

func refRelatedBySuffix(fk *ForeignKey, ft *Table) (string, error) {
	t := fk.Table()
	siblings := t.ForeignKeysReferencingTable(ft.Name)
	var b strings.Builder
	for _, r := range fk.References {
		c, ok := t.Column(r.Local)
		if !ok {
			return "", columnNotFound(t, r.Local)
		}
		switch {
		case fk.IsSelfReference():
			fc, ok := ft.Column(r.Foreign)
			if !ok {
				return "", columnNotFound(ft, r.Foreign)
			}
			b.WriteString(fc.PhpName())
			if len(siblings) > 1 {
				fmt.Fprint(&b, slices.Index(siblings, fk))
			}
		case len(siblings) > 1 || len(ft.ForeignKeysReferencingTable(t.Name)) > 0:
			b.WriteString(c.PhpName())
		}
	}
	return withRelatedBy(b.String()), nil
}

func withRelatedBy(s string) string {
	if s == "" {
		return ""
	}
	return relatedBy + s
}

func columnNotFound(t *Table, name string) error {
	return NewSchemaError(t.Name, name, fmt.Sprintf("could not fetch column %s in table %s", name, t.Name), nil)
}
