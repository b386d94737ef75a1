// Package catalog provides the knowledge base catalog and selection resolver.
//
// Information Hiding:
// - Index construction (by id, by lowercased name) hidden behind New
// - Records are copied in and out so the catalog cannot be mutated after construction
// - Selection parsing rules hidden behind Resolve
package catalog

import (
	"fmt"
	"strings"
)

// Record is a single knowledge base entry.
// IconRef, BrandColor and OrgURL are display metadata only.
type Record struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IconRef    string `json:"icon_url"`
	BrandColor string `json:"brand_color"`
	OrgURL     string `json:"org_url"`
}

// String returns the name with a shortened id, e.g. "MAPS (f88d9d45...)".
func (r Record) String() string {
	short := r.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s (%s...)", r.Name, short)
}

// Catalog is an immutable, ordered set of knowledge base records.
// Safe for concurrent use: nothing is written after New returns.
type Catalog struct {
	records []Record
	byID    map[string]int
	byName  map[string]int
}

// New builds a catalog from records, preserving their order.
// Returns an error if an id or a case-folded name is empty or repeated.
func New(records []Record) (*Catalog, error) {
	c := &Catalog{
		records: make([]Record, len(records)),
		byID:    make(map[string]int, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	copy(c.records, records)

	for i, r := range c.records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: empty id", i+1)
		}
		key := strings.ToLower(r.Name)
		if key == "" {
			return nil, fmt.Errorf("record %d (%s): empty name", i+1, r.ID)
		}
		if prev, exists := c.byID[r.ID]; exists {
			return nil, fmt.Errorf("duplicate id %q (records %d and %d)", r.ID, prev+1, i+1)
		}
		if prev, exists := c.byName[key]; exists {
			return nil, fmt.Errorf("duplicate name %q (records %d and %d)", r.Name, prev+1, i+1)
		}
		c.byID[r.ID] = i
		c.byName[key] = i
	}

	return c, nil
}

// MustNew is like New but panics on invalid input.
// Use only with compile-time tables.
func MustNew(records []Record) *Catalog {
	c, err := New(records)
	if err != nil {
		panic(fmt.Sprintf("catalog: %v", err))
	}
	return c
}

// NewDefault builds a catalog from the built-in knowledge bases.
func NewDefault() (*Catalog, error) {
	return New(Builtin())
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// ByID returns the record with exactly this id.
func (c *Catalog) ByID(id string) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// ByName returns the record whose name matches, ignoring case.
func (c *Catalog) ByName(name string) (Record, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// List returns a copy of all records in definition order.
func (c *Catalog) List() []Record {
	result := make([]Record, len(c.records))
	copy(result, c.records)
	return result
}

// IDs returns every id in definition order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.records))
	for i, r := range c.records {
		ids[i] = r.ID
	}
	return ids
}

// IDsByNames converts names to ids. Unknown names are skipped.
func (c *Catalog) IDsByNames(names []string) []string {
	ids := []string{}
	for _, name := range names {
		if r, ok := c.ByName(name); ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
