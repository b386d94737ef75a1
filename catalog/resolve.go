package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// AllKeyword selects every knowledge base in the catalog.
const AllKeyword = "all"

const (
	idLength  = 36
	idHyphens = 4
)

// Selection is the result of resolving a selection string.
// Warnings holds one message per dropped token; resolution itself never fails.
type Selection struct {
	IDs      []string
	Warnings []string
}

// Empty reports whether no knowledge base was selected.
func (s Selection) Empty() bool {
	return len(s.IDs) == 0
}

type resolveOptions struct {
	strictIDs bool
}

// ResolveOpt configures Resolve.
type ResolveOpt func(*resolveOptions)

// StrictIDs drops id-shaped tokens that are not canonical UUIDs.
func StrictIDs() ResolveOpt {
	return func(o *resolveOptions) {
		o.strictIDs = true
	}
}

// IsIDShaped reports whether s looks like a knowledge base id:
// exactly 36 characters (runes, not bytes) with exactly 4 hyphens.
// The content is not checked.
func IsIDShaped(s string) bool {
	return utf8.RuneCountInString(s) == idLength && strings.Count(s, "-") == idHyphens
}

// Resolve turns a selection string into knowledge base ids.
//
// The selection is empty, the keyword "all" (any case), or a comma-separated
// mix of names and ids. Ids are passed through without an existence check.
// Names are matched case-insensitively; unknown names are dropped with a
// warning. Output order follows the input and duplicates are kept.
func (c *Catalog) Resolve(selection string, opts ...ResolveOpt) Selection {
	var o resolveOptions
	for _, opt := range opts {
		opt(&o)
	}

	result := Selection{IDs: []string{}}
	if selection == "" {
		return result
	}

	if strings.EqualFold(selection, AllKeyword) {
		result.IDs = c.IDs()
		return result
	}

	for _, item := range strings.Split(selection, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		if IsIDShaped(item) {
			if o.strictIDs && uuid.Validate(item) != nil {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("knowledge base id '%s' is not a valid UUID", item))
				continue
			}
			result.IDs = append(result.IDs, item)
			continue
		}

		r, ok := c.ByName(item)
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("knowledge base '%s' not found", item))
			continue
		}
		result.IDs = append(result.IDs, r.ID)
	}

	return result
}
