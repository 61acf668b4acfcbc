// Package listing turns the nodes of the current folder into the ordered,
// grouped view shown to the user: filter, then stable sort, then group.
package listing

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"propdocs/internal/doctree"
	"propdocs/internal/domain/models/docsystem"
)

type Node = docsystem.Node

// Kind selects which filter view is active. Only one is active at a time.
type Kind string

const (
	KindNone     Kind = "none"
	KindProperty Kind = "property"
	KindType     Kind = "type"
	KindTags     Kind = "tags"
	KindRecent   Kind = "recent"
)

// Field is the sort key.
type Field string

const (
	FieldDateAdded Field = "date_added"
	FieldName      Field = "name"
	FieldOwner     Field = "owner"
	FieldValue     Field = "value"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	AllGroup        = "All"
	RecentGroup     = "Recent"
	UnassignedGroup = "Unassigned"
	OtherGroup      = "Other"
)

// Set is a set of selected filter values.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// FilterState is the active filter view. Tags are matched in the order given
// by SelectedTags when grouping, so it is a slice rather than a Set.
type FilterState struct {
	Kind               Kind
	SelectedProperties Set
	SelectedTypes      Set
	SelectedTags       []string
}

// WithKind switches the filter view, clearing the selections of every other view.
func (f FilterState) WithKind(kind Kind) FilterState {
	next := FilterState{Kind: kind}
	switch kind {
	case KindProperty:
		next.SelectedProperties = f.SelectedProperties
	case KindType:
		next.SelectedTypes = f.SelectedTypes
	case KindTags:
		next.SelectedTags = f.SelectedTags
	}
	return next
}

type SortState struct {
	Field Field
	Order Order
}

// DefaultSort lists newest additions first.
var DefaultSort = SortState{Field: FieldDateAdded, Order: Desc}

// Group is one labelled bucket of the rendered view.
type Group struct {
	Key   string
	Nodes []*Node
}

// Caption is the "N Folders & M Files" label for the group.
func (g Group) Caption() string {
	return doctree.Count(g.Nodes).Caption()
}

// Render filters, sorts and groups nodes. Groups come back in a fixed order:
// first-seen order of each bucket after sorting.
func Render(nodes []*Node, filter FilterState, sortState SortState) []Group {
	return GroupNodes(Sort(Filter(nodes, filter), sortState), filter)
}

// Filter keeps the nodes selected by filter. Property, type and tag views with
// nothing selected keep nothing.
func Filter(nodes []*Node, filter FilterState) []*Node {
	var keep func(*Node) bool
	switch filter.Kind {
	case KindProperty:
		keep = func(n *Node) bool { return filter.SelectedProperties.Has(n.LinkedProperty) }
	case KindType:
		keep = func(n *Node) bool { return filter.SelectedTypes.Has(n.FileType) }
	case KindTags:
		keep = func(n *Node) bool { return firstSelectedTag(n, filter.SelectedTags) != "" }
	default:
		return slices.Clone(nodes)
	}

	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

// Sort returns a stably sorted copy of nodes. Names and owners compare with
// English collation; dates and values compare numerically.
func Sort(nodes []*Node, s SortState) []*Node {
	out := slices.Clone(nodes)
	compare := comparator(s.Field)
	if s.Order == Desc {
		asc := compare
		compare = func(a, b *Node) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparator(field Field) func(a, b *Node) int {
	switch field {
	case FieldName:
		c := collate.New(language.English, collate.Loose)
		return func(a, b *Node) int { return c.CompareString(a.Name, b.Name) }
	case FieldOwner:
		c := collate.New(language.English, collate.Loose)
		return func(a, b *Node) int { return c.CompareString(a.Owner, b.Owner) }
	case FieldValue:
		return func(a, b *Node) int { return cmp.Compare(a.Value, b.Value) }
	default:
		return func(a, b *Node) int { return a.DateAdded.Compare(b.DateAdded) }
	}
}

// GroupNodes buckets already sorted nodes according to the filter view.
func GroupNodes(nodes []*Node, filter FilterState) []Group {
	switch filter.Kind {
	case KindProperty:
		return bucket(nodes, func(n *Node) string { return orDefault(n.LinkedProperty, UnassignedGroup) })
	case KindType:
		return bucket(nodes, func(n *Node) string { return orDefault(n.FileType, OtherGroup) })
	case KindTags:
		return bucket(nodes, func(n *Node) string { return firstSelectedTag(n, filter.SelectedTags) })
	case KindRecent:
		recent := slices.Clone(nodes)
		slices.SortStableFunc(recent, func(a, b *Node) int {
			return b.Recency().Compare(a.Recency())
		})
		return []Group{{Key: RecentGroup, Nodes: recent}}
	default:
		return []Group{{Key: AllGroup, Nodes: nodes}}
	}
}

func bucket(nodes []*Node, key func(*Node) string) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, n := range nodes {
		k := key(n)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Nodes = append(groups[i].Nodes, n)
	}
	return groups
}

// firstSelectedTag returns the first of the node's tags that is selected, or "".
func firstSelectedTag(n *Node, selected []string) string {
	for _, tag := range n.Tags {
		if slices.Contains(selected, tag) {
			return tag
		}
	}
	return ""
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Values lists the distinct non-empty values of a node attribute in first-seen
// order. It feeds filter pickers.
func Values(nodes []*Node, kind Kind) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, n := range nodes {
		switch kind {
		case KindProperty:
			add(n.LinkedProperty)
		case KindType:
			add(n.FileType)
		case KindTags:
			for _, t := range n.Tags {
				add(t)
			}
		}
	}
	return out
}

// ParseKind accepts the filter view names used on the command line and in URLs.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case "", KindNone:
		return KindNone, nil
	case KindProperty, KindType, KindTags, KindRecent:
		return k, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// ParseSort parses a sort field and order. Both "dateAdded" and "date_added" are accepted.
func ParseSort(field, order string) (SortState, error) {
	s := DefaultSort
	switch strings.ToLower(field) {
	case "":
	case "date_added", "dateadded", "date":
		s.Field = FieldDateAdded
	case "name":
		s.Field = FieldName
	case "owner":
		s.Field = FieldOwner
	case "value":
		s.Field = FieldValue
	default:
		return s, fmt.Errorf("unknown sort field %q", field)
	}
	switch strings.ToLower(order) {
	case "":
	case "asc":
		s.Order = Asc
	case "desc":
		s.Order = Desc
	default:
		return s, fmt.Errorf("unknown sort order %q", order)
	}
	return s, nil
}
