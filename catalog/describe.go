package catalog

import (
	"fmt"
	"strings"
)

// Describe renders the catalog for operators: one block per record with its
// 1-based position, name, id and organization URL, then usage examples.
func (c *Catalog) Describe() string {
	var b strings.Builder

	b.WriteString("Available Knowledge Bases:\n")
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n")
	for i, r := range c.records {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Name)
		fmt.Fprintf(&b, "   ID: %s\n", r.ID)
		fmt.Fprintf(&b, "   URL: %s\n", r.OrgURL)
		b.WriteString("\n")
	}

	exampleNames := "Blossom Analysis,MAPS"
	exampleID := "8be6dfd9-ecaf-4e2b-8414-01aecb67e147"
	if len(c.records) > 0 {
		exampleID = c.records[0].ID
		exampleNames = c.records[0].Name
		if len(c.records) > 2 {
			exampleNames += "," + c.records[2].Name
		}
	}

	b.WriteString("Usage examples:\n")
	fmt.Fprintf(&b, "  By name: -k \"%s\"\n", exampleNames)
	fmt.Fprintf(&b, "  By ID: -k \"%s\"\n", exampleID)
	fmt.Fprintf(&b, "  All: -k \"%s\"\n", AllKeyword)

	return b.String()
}
