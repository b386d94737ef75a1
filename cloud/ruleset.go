package cloud

import (
	"context"
	"fmt"
	"net/url"

	client "github.com/mutablelogic/go-client"
)

// Ruleset is a named list of rules used to build the system prompt.
type Ruleset struct {
	ID    string
	Name  string
	Alias string
	Rules []string
}

type rulesetsResponse struct {
	Rulesets []struct {
		RulesetID string `json:"ruleset_id"`
		Name      string `json:"name"`
		Alias     string `json:"alias"`
	} `json:"rulesets"`
}

type rulesResponse struct {
	Rules []struct {
		RuleID string `json:"rule_id"`
		Rule   string `json:"rule"`
	} `json:"rules"`
}

// Ruleset fetches the ruleset with the given alias and its rules.
// Returns ErrNotFound if no ruleset has that alias.
func (c *Client) Ruleset(ctx context.Context, alias string) (Ruleset, error) {
	var rulesets rulesetsResponse
	if err := c.DoWithContext(ctx, nil, &rulesets,
		client.OptPath("rulesets"),
		client.OptQuery(url.Values{"alias": {alias}}),
	); err != nil {
		return Ruleset{}, fmt.Errorf("lookup ruleset %q: %w", alias, err)
	}
	if len(rulesets.Rulesets) == 0 {
		return Ruleset{}, fmt.Errorf("ruleset %q: %w", alias, ErrNotFound)
	}

	found := rulesets.Rulesets[0]
	result := Ruleset{
		ID:    found.RulesetID,
		Name:  found.Name,
		Alias: found.Alias,
	}
	if result.Name == "" {
		result.Name = alias
	}

	var rules rulesResponse
	if err := c.DoWithContext(ctx, nil, &rules,
		client.OptPath("rules"),
		client.OptQuery(url.Values{"ruleset_id": {found.RulesetID}}),
	); err != nil {
		return Ruleset{}, fmt.Errorf("list rules for %q: %w", alias, err)
	}
	for _, r := range rules.Rules {
		result.Rules = append(result.Rules, r.Rule)
	}

	return result, nil
}
