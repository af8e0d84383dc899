package gen

import "strings"

// ModifierCategory selects which modifier of a behavior a builder talks to.
type ModifierCategory int

// Modifier categories, one per artifact family.
const (
	ObjectBuilderModifier ModifierCategory = iota + 1
	QueryBuilderModifier
	PeerBuilderModifier
	TableMapBuilderModifier
)

func (c ModifierCategory) String() string {
	switch c {
	case ObjectBuilderModifier:
		return "ObjectBuilderModifier"
	case QueryBuilderModifier:
		return "QueryBuilderModifier"
	case PeerBuilderModifier:
		return "PeerBuilderModifier"
	case TableMapBuilderModifier:
		return "TableMapBuilderModifier"
	default:
		return "UnknownModifier"
	}
}

// Behavior is a named extension attached to a table that contributes to, or
// rewrites, the generated code at the hooks fired by the builders.
type Behavior interface {
	// Name of the behavior, used in the attribution comment.
	Name() string
	// Modifier returns the modifier of the given category, or nil.
	Modifier(ModifierCategory) *Modifier
}

type (
	// AppendFunc returns a fragment appended to the script. An empty
	// fragment appends nothing.
	AppendFunc func(u *Unit) (string, error)

	// FilterFunc rewrites the script in place.
	FilterFunc func(s *Script, u *Unit) error

	// ContentFunc returns a content value (e.g. a parent class name). An
	// empty value means the behavior has nothing to say.
	ContentFunc func(u *Unit) (string, error)

	// Modifier is the capability table of a behavior for one category.
	// A hook is supported if its name is a key of the matching map.
	Modifier struct {
		Append  map[string]AppendFunc
		Filter  map[string]FilterFunc
		Content map[string]ContentFunc
	}
)

// IsFilterHook reports if the hook rewrites the script instead of appending to it.
func IsFilterHook(hook string) bool {
	return strings.Contains(hook, "Filter")
}

// Has reports if the modifier implements the given hook or content name.
func (m *Modifier) Has(hook string) bool {
	if m == nil {
		return false
	}
	if IsFilterHook(hook) {
		_, ok := m.Filter[hook]
		return ok
	}
	if _, ok := m.Append[hook]; ok {
		return true
	}
	_, ok := m.Content[hook]
	return ok
}

// HasBehaviorModifier reports if any behavior of the table supports the hook.
func (b *Builder) HasBehaviorModifier(hook string, cat ModifierCategory) bool {
	for _, bh := range b.table.Behaviors {
		if bh.Modifier(cat).Has(hook) {
			return true
		}
	}
	return false
}

// ApplyBehaviorModifier fires the hook on every behavior of the table, in
// attachment order. Filter hooks rewrite s in place. Other hooks append an
// attribution comment and the fragment, each line indented with tab.
func (u *Unit) ApplyBehaviorModifier(hook string, cat ModifierCategory, s *Script, tab string) error {
	filter := IsFilterHook(hook)
	for _, bh := range u.table.Behaviors {
		m := bh.Modifier(cat)
		if m == nil {
			continue
		}
		if filter {
			fn, ok := m.Filter[hook]
			if !ok {
				continue
			}
			if err := fn(s, u); err != nil {
				return err
			}
			continue
		}
		fn, ok := m.Append[hook]
		if !ok {
			continue
		}
		frag, err := fn(u)
		if err != nil {
			return err
		}
		if frag == "" {
			continue
		}
		s.Printf("\n%s// %s behavior\n", tab, bh.Name())
		s.WriteString(indent(frag, tab))
	}
	return nil
}

// BehaviorContent returns the first non-empty content produced by the
// behaviors of the table for the given name. Later behaviors are not asked.
func (u *Unit) BehaviorContent(name string, cat ModifierCategory) (string, error) {
	for _, bh := range u.table.Behaviors {
		m := bh.Modifier(cat)
		if m == nil {
			continue
		}
		fn, ok := m.Content[name]
		if !ok {
			continue
		}
		v, err := fn(u)
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
	}
	return "", nil
}

// indent prefixes every line of s with tab. A final line break is not
// followed by a prefix.
func indent(s, tab string) string {
	if tab == "" || s == "" {
		return s
	}
	var b strings.Builder
	lines := strings.SplitAfter(s, "\n")
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(tab)
		b.WriteString(l)
	}
	return b.String()
}
