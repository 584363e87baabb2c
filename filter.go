// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// entryMatcher holds compiled include/exclude rules for entry selection.
type entryMatcher struct {
	matcher *pathrules.Matcher
}

// newEntryMatcher compiles entry selection rules. Nil matcher selects every
// entry. Names are matched case-insensitively. Without any include rule,
// unmatched names are selected; with one, they are not.
func newEntryMatcher(rules []pathrules.Rule) (*entryMatcher, error) {
	rules = normalizeEntryRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	defaultAction := pathrules.ActionInclude
	for _, rule := range rules {
		if rule.Action == pathrules.ActionInclude {
			defaultAction = pathrules.ActionExclude
			break
		}
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   defaultAction,
	})
	if err != nil {
		return nil, fmt.Errorf("compile entry rules: %w", err)
	}

	return &entryMatcher{matcher: matcher}, nil
}

// normalizeEntryRules normalizes rule patterns and drops empty patterns.
func normalizeEntryRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether entry name is selected.
func (m *entryMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	return m.matcher.Included(name, false)
}

// filterEntries keeps entries selected by m.
func filterEntries(entries []Entry, m *entryMatcher) []Entry {
	if m == nil {
		return entries
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if m.Match(e.Name) {
			out = append(out, e)
		}
	}

	return out
}

// Select returns live entries whose names pass rules.
func (a *Archive) Select(rules []pathrules.Rule) ([]Entry, error) {
	m, err := newEntryMatcher(rules)
	if err != nil {
		return nil, err
	}

	return filterEntries(a.LiveEntries(), m), nil
}

// IncludeRules builds include rules from glob patterns.
func IncludeRules(patterns ...string) []pathrules.Rule {
	return rulesFor(pathrules.Rule{Action: pathrules.ActionInclude}, patterns)
}

// ExcludeRules builds exclude rules from glob patterns.
func ExcludeRules(patterns ...string) []pathrules.Rule {
	return rulesFor(pathrules.Rule{Action: pathrules.ActionExclude}, patterns)
}

// rulesFor builds rules with the action of template, skipping blank patterns.
func rulesFor(template pathrules.Rule, patterns []string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		if normalizePathForMatching(pattern) == "" {
			continue
		}

		rule := template
		rule.Pattern = pattern
		rules = append(rules, rule)
	}

	return rules
}
