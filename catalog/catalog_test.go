package catalog

import (
	"fmt"
	"strings"
	"testing"
)

const (
	idBlossom = "8be6dfd9-ecaf-4e2b-8414-01aecb67e147"
	idMAPS    = "f88d9d45-f25e-4051-8a84-a8d7873622b8"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault failed: %v", err)
	}
	return c
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewRejectsDuplicateID(t *testing.T) {
	_, err := New([]Record{
		{ID: "a", Name: "One"},
		{ID: "a", Name: "Two"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestNewRejectsDuplicateNameIgnoringCase(t *testing.T) {
	_, err := New([]Record{
		{ID: "a", Name: "MAPS"},
		{ID: "b", Name: "maps"},
	})
	if err == nil {
		t.Fatal("expected error for duplicate name")
	}
}

func TestNewRejectsEmptyFields(t *testing.T) {
	if _, err := New([]Record{{ID: "", Name: "x"}}); err == nil {
		t.Error("expected error for empty id")
	}
	if _, err := New([]Record{{ID: "x", Name: ""}}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for duplicate ids")
		}
	}()
	MustNew([]Record{{ID: "a", Name: "x"}, {ID: "a", Name: "y"}})
}

func TestNewCopiesInput(t *testing.T) {
	records := []Record{{ID: "a", Name: "One"}}
	c, err := New(records)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	records[0].Name = "Changed"

	r, ok := c.ByID("a")
	if !ok || r.Name != "One" {
		t.Errorf("catalog changed through caller slice: %+v", r)
	}
}

func TestLookupsMatchEveryRecord(t *testing.T) {
	c := newTestCatalog(t)

	for _, r := range Builtin() {
		got, ok := c.ByID(r.ID)
		if !ok || got != r {
			t.Errorf("ByID(%q) = %+v, %v", r.ID, got, ok)
		}
		got, ok = c.ByName(strings.ToUpper(r.Name))
		if !ok || got != r {
			t.Errorf("ByName(%q) = %+v, %v", strings.ToUpper(r.Name), got, ok)
		}
	}

	if _, ok := c.ByID("11111111-1111-1111-1111-111111111111"); ok {
		t.Error("expected no match for unknown id")
	}
	if _, ok := c.ByName("Nonexistent Org"); ok {
		t.Error("expected no match for unknown name")
	}
	if _, ok := c.ByID(strings.ToUpper(idBlossom)); ok {
		t.Error("ByID must be an exact match")
	}
}

func TestListReturnsCopy(t *testing.T) {
	c := newTestCatalog(t)

	list := c.List()
	if len(list) != c.Len() {
		t.Fatalf("expected %d records, got %d", c.Len(), len(list))
	}
	list[0].Name = "Mutated"

	again := c.List()
	if again[0].Name != "Blossom Analysis" {
		t.Errorf("catalog mutated through List result: %q", again[0].Name)
	}
	if len(again) != 5 {
		t.Errorf("expected 5 records, got %d", len(again))
	}
}

func TestBuiltinReturnsCopy(t *testing.T) {
	b := Builtin()
	b[0].ID = "changed"
	if Builtin()[0].ID != idBlossom {
		t.Error("Builtin table mutated through returned slice")
	}
}

func TestRecordString(t *testing.T) {
	r := Record{ID: idMAPS, Name: "MAPS"}
	if got := r.String(); got != "MAPS (f88d9d45...)" {
		t.Errorf("unexpected String(): %q", got)
	}
	short := Record{ID: "abc", Name: "Short"}
	if got := short.String(); got != "Short (abc...)" {
		t.Errorf("unexpected String() for short id: %q", got)
	}
}

func TestResolve(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name      string
		selection string
		want      []string
		warnings  int
	}{
		{"empty", "", []string{}, 0},
		{"names in order", "Blossom Analysis,MAPS", []string{idBlossom, idMAPS}, 0},
		{"case-insensitive, input order", "maps, blossom analysis", []string{idMAPS, idBlossom}, 0},
		{"unknown name dropped", "Blossom Analysis,Nonexistent Org,MAPS", []string{idBlossom, idMAPS}, 1},
		{"unknown id passed through", "11111111-1111-1111-1111-111111111111", []string{"11111111-1111-1111-1111-111111111111"}, 0},
		{"duplicates kept", "Blossom Analysis,Blossom Analysis", []string{idBlossom, idBlossom}, 0},
		{"empty pieces skipped", " , ,MAPS,, ", []string{idMAPS}, 0},
		{"mixed id and name", idBlossom + " , MAPS", []string{idBlossom, idMAPS}, 0},
		{"only commas", ",,,", []string{}, 0},
		{"35 chars is a name", "11111111-1111-1111-1111-11111111111", []string{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := c.Resolve(tt.selection)
			if !equalIDs(sel.IDs, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.selection, sel.IDs, tt.want)
			}
			if len(sel.Warnings) != tt.warnings {
				t.Errorf("Resolve(%q) warnings = %v, want %d", tt.selection, sel.Warnings, tt.warnings)
			}
		})
	}
}

func TestResolveUnknownNameWarning(t *testing.T) {
	c := newTestCatalog(t)

	sel := c.Resolve("Blossom Analysis,Nonexistent Org,MAPS")
	if len(sel.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", sel.Warnings)
	}
	if !strings.Contains(sel.Warnings[0], "Nonexistent Org") {
		t.Errorf("warning should name the token: %q", sel.Warnings[0])
	}
}

func TestResolveAll(t *testing.T) {
	c := newTestCatalog(t)

	for _, keyword := range []string{"all", "ALL", "All"} {
		sel := c.Resolve(keyword)
		if len(sel.IDs) != c.Len() {
			t.Fatalf("Resolve(%q) returned %d ids, want %d", keyword, len(sel.IDs), c.Len())
		}
		for i, r := range c.List() {
			if sel.IDs[i] != r.ID {
				t.Errorf("Resolve(%q)[%d] = %q, want %q", keyword, i, sel.IDs[i], r.ID)
			}
		}
		if len(sel.Warnings) != 0 {
			t.Errorf("unexpected warnings: %v", sel.Warnings)
		}
	}
}

func TestResolveAllOnlyAsWholeSelection(t *testing.T) {
	c := newTestCatalog(t)

	sel := c.Resolve("all,MAPS")
	if !equalIDs(sel.IDs, []string{idMAPS}) {
		t.Errorf("expected only MAPS, got %v", sel.IDs)
	}
	if len(sel.Warnings) != 1 {
		t.Errorf("expected 'all' inside a list to be an unknown name, got %v", sel.Warnings)
	}
}

func TestResolveStrictIDs(t *testing.T) {
	c := newTestCatalog(t)

	notHex := "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"
	if !IsIDShaped(notHex) {
		t.Fatal("test token must be id-shaped")
	}

	lenient := c.Resolve(notHex)
	if !equalIDs(lenient.IDs, []string{notHex}) {
		t.Errorf("default mode should pass through, got %v", lenient.IDs)
	}

	strict := c.Resolve(notHex+",MAPS", StrictIDs())
	if !equalIDs(strict.IDs, []string{idMAPS}) {
		t.Errorf("strict mode should drop non-UUID, got %v", strict.IDs)
	}
	if len(strict.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", strict.Warnings)
	}

	valid := c.Resolve("11111111-1111-1111-1111-111111111111", StrictIDs())
	if len(valid.IDs) != 1 {
		t.Errorf("strict mode should keep a valid UUID, got %v", valid.IDs)
	}
}

func TestIsIDShaped(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{idBlossom, true},
		{"11111111-1111-1111-1111-111111111111", true},
		{"111111111111111111111111111111111111", false},
		{"1111111-11111-1111-1111-111111111111", true},
		{"11111111-1111-1111-1111-11111111111", false},
		{"MAPS", false},
		{"é1111111-1111-1111-1111-111111111111", true},
		{"é111111-1111-1111-1111-111111111111", false},
	}
	for _, tt := range tests {
		if got := IsIDShaped(tt.in); got != tt.want {
			t.Errorf("IsIDShaped(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveCountsCharactersNotBytes(t *testing.T) {
	c := newTestCatalog(t)

	wide := "é1111111-1111-1111-1111-111111111111"
	sel := c.Resolve(wide)
	if !equalIDs(sel.IDs, []string{wide}) {
		t.Errorf("36-character token should pass through as an id, got %v", sel.IDs)
	}
	if len(sel.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", sel.Warnings)
	}

	short := "é111111-1111-1111-1111-111111111111"
	sel = c.Resolve(short)
	if len(sel.IDs) != 0 {
		t.Errorf("35-character token should be looked up as a name, got %v", sel.IDs)
	}
	if len(sel.Warnings) != 1 {
		t.Errorf("expected one unknown-name warning, got %v", sel.Warnings)
	}
}

func TestIDsByNames(t *testing.T) {
	c := newTestCatalog(t)

	got := c.IDsByNames([]string{"MAPS", "nope", "blossom analysis"})
	if !equalIDs(got, []string{idMAPS, idBlossom}) {
		t.Errorf("unexpected ids: %v", got)
	}
}

func TestDescribe(t *testing.T) {
	c := newTestCatalog(t)
	out := c.Describe()

	for i, r := range c.List() {
		for _, want := range []string{
			fmt.Sprintf("%d. %s", i+1, r.Name),
			"ID: " + r.ID,
			"URL: " + r.OrgURL,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("Describe output missing %q", want)
			}
		}
	}
	if !strings.Contains(out, `All: -k "all"`) {
		t.Error("Describe output missing usage examples")
	}
}

func TestDescribeEmptyCatalog(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty catalog")
	}
	if !strings.Contains(c.Describe(), "Usage examples:") {
		t.Error("expected usage examples even for an empty catalog")
	}
}
