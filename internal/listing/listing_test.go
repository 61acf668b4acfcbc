package listing

import (
	"slices"
	"testing"
	"time"
)

var day = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func fixture() []*Node {
	return []*Node{
		{ID: "1", Name: "Leases", IsFolder: true, LinkedProperty: "Maple Court", Owner: "zoe", DateAdded: day, Tags: []string{"legal"}},
		{ID: "2", Name: "inspection.pdf", FileType: "PDF", LinkedProperty: "Maple Court", Owner: "Ana", Value: 300, DateAdded: day.Add(2 * time.Hour), DateModified: day.Add(72 * time.Hour), Tags: []string{"inspection", "legal"}},
		{ID: "3", Name: "Émile deed.pdf", FileType: "PDF", LinkedProperty: "Harbor View", Owner: "bob", Value: 1200, DateAdded: day.Add(time.Hour), Tags: []string{"legal"}},
		{ID: "4", Name: "roof.jpg", FileType: "Image", Owner: "ana", Value: 300, DateAdded: day.Add(3 * time.Hour)},
		{ID: "5", Name: "budget.xlsx", FileType: "", LinkedProperty: "Harbor View", Owner: "Bob", Value: 50, DateAdded: day.Add(4 * time.Hour), DateModified: day.Add(5 * time.Hour)},
	}
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		sort SortState
		want []string
	}{
		{name: "date added ascending", sort: SortState{Field: FieldDateAdded, Order: Asc}, want: []string{"1", "3", "2", "4", "5"}},
		{name: "date added descending", sort: SortState{Field: FieldDateAdded, Order: Desc}, want: []string{"5", "4", "2", "3", "1"}},
		{name: "name uses collation", sort: SortState{Field: FieldName, Order: Asc}, want: []string{"5", "3", "2", "1", "4"}},
		{name: "owner ties keep input order", sort: SortState{Field: FieldOwner, Order: Asc}, want: []string{"2", "4", "3", "5", "1"}},
		{name: "value ascending is stable", sort: SortState{Field: FieldValue, Order: Asc}, want: []string{"1", "5", "2", "4", "3"}},
		{name: "value descending is stable", sort: SortState{Field: FieldValue, Order: Desc}, want: []string{"3", "2", "4", "5", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Sort(fixture(), tt.sort))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Sort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_Idempotent(t *testing.T) {
	for _, field := range []Field{FieldDateAdded, FieldName, FieldOwner, FieldValue} {
		for _, order := range []Order{Asc, Desc} {
			s := SortState{Field: field, Order: order}
			once := Sort(fixture(), s)
			twice := Sort(once, s)
			if !slices.Equal(ids(once), ids(twice)) {
				t.Errorf("%s %s: sort(sort(L)) = %v, sort(L) = %v", field, order, ids(twice), ids(once))
			}
		}
	}
}

func TestSort_DoesNotModifyInput(t *testing.T) {
	nodes := fixture()
	Sort(nodes, SortState{Field: FieldName, Order: Desc})
	if got := ids(nodes); !slices.Equal(got, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("input reordered: %v", got)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter FilterState
		want   []string
	}{
		{name: "none keeps all", filter: FilterState{Kind: KindNone}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "recent keeps all", filter: FilterState{Kind: KindRecent}, want: []string{"1", "2", "3", "4", "5"}},
		{name: "property", filter: FilterState{Kind: KindProperty, SelectedProperties: NewSet("Harbor View")}, want: []string{"3", "5"}},
		{name: "type", filter: FilterState{Kind: KindType, SelectedTypes: NewSet("PDF", "Image")}, want: []string{"2", "3", "4"}},
		{name: "tags", filter: FilterState{Kind: KindTags, SelectedTags: []string{"inspection"}}, want: []string{"2"}},
		{name: "empty property selection keeps nothing", filter: FilterState{Kind: KindProperty}, want: []string{}},
		{name: "empty type selection keeps nothing", filter: FilterState{Kind: KindType, SelectedTypes: NewSet()}, want: []string{}},
		{name: "empty tag selection keeps nothing", filter: FilterState{Kind: KindTags}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(fixture(), tt.filter))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithKind(t *testing.T) {
	f := FilterState{
		Kind:               KindProperty,
		SelectedProperties: NewSet("Maple Court"),
		SelectedTypes:      NewSet("PDF"),
		SelectedTags:       []string{"legal"},
	}

	got := f.WithKind(KindType)
	if got.Kind != KindType {
		t.Errorf("Kind = %s, want type", got.Kind)
	}
	if got.SelectedProperties != nil || got.SelectedTags != nil {
		t.Errorf("other selections not cleared: %+v", got)
	}
	if !got.SelectedTypes.Has("PDF") {
		t.Error("type selection should survive")
	}

	if got := f.WithKind(KindRecent); got.SelectedTypes != nil || got.SelectedProperties != nil {
		t.Errorf("recent view should carry no selections: %+v", got)
	}
}

func TestRender(t *testing.T) {
	sortByDate := SortState{Field: FieldDateAdded, Order: Asc}

	tests := []struct {
		name       string
		filter     FilterState
		sort       SortState
		wantKeys   []string
		wantGroups [][]string
	}{
		{
			name:       "none is a single group",
			filter:     FilterState{Kind: KindNone},
			sort:       sortByDate,
			wantKeys:   []string{AllGroup},
			wantGroups: [][]string{{"1", "3", "2", "4", "5"}},
		},
		{
			name:       "property buckets in first-seen order",
			filter:     FilterState{Kind: KindProperty, SelectedProperties: NewSet("Maple Court", "Harbor View")},
			sort:       sortByDate,
			wantKeys:   []string{"Maple Court", "Harbor View"},
			wantGroups: [][]string{{"1", "2"}, {"3", "5"}},
		},
		{
			name:       "type buckets with missing type as Other",
			filter:     FilterState{Kind: KindType, SelectedTypes: NewSet("PDF", "Image", "")},
			sort:       SortState{Field: FieldDateAdded, Order: Desc},
			wantKeys:   []string{OtherGroup, "Image", "PDF"},
			wantGroups: [][]string{{"5", "1"}, {"4"}, {"2", "3"}},
		},
		{
			name:       "tags group under first selected tag",
			filter:     FilterState{Kind: KindTags, SelectedTags: []string{"legal", "inspection"}},
			sort:       sortByDate,
			wantKeys:   []string{"legal", "inspection"},
			wantGroups: [][]string{{"1", "3"}, {"2"}},
		},
		{
			name:       "recent ignores sort state",
			filter:     FilterState{Kind: KindRecent},
			sort:       SortState{Field: FieldName, Order: Asc},
			wantKeys:   []string{RecentGroup},
			wantGroups: [][]string{{"2", "5", "4", "3", "1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Render(fixture(), tt.filter, tt.sort)
			if len(groups) != len(tt.wantKeys) {
				t.Fatalf("got %d groups, want %d", len(groups), len(tt.wantKeys))
			}
			for i, g := range groups {
				if g.Key != tt.wantKeys[i] {
					t.Errorf("group %d key = %q, want %q", i, g.Key, tt.wantKeys[i])
				}
				if got := ids(g.Nodes); !slices.Equal(got, tt.wantGroups[i]) {
					t.Errorf("group %q = %v, want %v", g.Key, got, tt.wantGroups[i])
				}
			}
		})
	}
}

// Filtering then grouping never drops or duplicates nodes.
func TestRender_GroupsPartitionFilteredNodes(t *testing.T) {
	filters := []FilterState{
		{Kind: KindNone},
		{Kind: KindRecent},
		{Kind: KindProperty, SelectedProperties: NewSet("Maple Court", "Harbor View", "")},
		{Kind: KindType, SelectedTypes: NewSet("PDF")},
		{Kind: KindTags, SelectedTags: []string{"inspection", "legal"}},
		{Kind: KindTags},
	}

	for _, f := range filters {
		filtered := Filter(fixture(), f)
		total := 0
		seen := make(map[string]bool)
		for _, g := range Render(fixture(), f, DefaultSort) {
			total += len(g.Nodes)
			for _, n := range g.Nodes {
				if seen[n.ID] {
					t.Errorf("%s: node %s appears twice", f.Kind, n.ID)
				}
				seen[n.ID] = true
			}
		}
		if total != len(filtered) {
			t.Errorf("%s: grouped %d nodes, filtered %d", f.Kind, total, len(filtered))
		}
	}
}

func TestGroupCaption(t *testing.T) {
	groups := Render(fixture(), FilterState{Kind: KindNone}, DefaultSort)
	if got := groups[0].Caption(); got != "1 Folders & 4 Files" {
		t.Errorf("Caption() = %q, want %q", got, "1 Folders & 4 Files")
	}
}

func TestValues(t *testing.T) {
	nodes := fixture()
	if got := Values(nodes, KindProperty); !slices.Equal(got, []string{"Maple Court", "Harbor View"}) {
		t.Errorf("Values(property) = %v", got)
	}
	if got := Values(nodes, KindTags); !slices.Equal(got, []string{"legal", "inspection"}) {
		t.Errorf("Values(tags) = %v", got)
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		field, order string
		want         SortState
		wantErr      bool
	}{
		{field: "", order: "", want: DefaultSort},
		{field: "dateAdded", order: "asc", want: SortState{Field: FieldDateAdded, Order: Asc}},
		{field: "Name", order: "DESC", want: SortState{Field: FieldName, Order: Desc}},
		{field: "value", order: "", want: SortState{Field: FieldValue, Order: Desc}},
		{field: "size", wantErr: true},
		{field: "name", order: "sideways", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseSort(tt.field, tt.order)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSort(%q, %q) error = %v, wantErr %v", tt.field, tt.order, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSort(%q, %q) = %+v, want %+v", tt.field, tt.order, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Tags"); err != nil || k != KindTags {
		t.Errorf("ParseKind(Tags) = %v, %v", k, err)
	}
	if k, err := ParseKind(""); err != nil || k != KindNone {
		t.Errorf("ParseKind(\"\") = %v, %v", k, err)
	}
	if _, err := ParseKind("owner"); err == nil {
		t.Error("ParseKind(owner) should fail")
	}
}
