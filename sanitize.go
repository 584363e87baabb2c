// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bsa

package bsa

import (
	"path"
	"strconv"
	"strings"
)

// reservedDOSNames contains case-insensitive reserved DOS/Windows device names.
var reservedDOSNames = map[string]struct{}{
	"aux": {}, "clock$": {}, "con": {}, "config$": {}, "nul": {}, "prn": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// SanitizeName rewrites an entry name to a file-system safe file name.
// Characters invalid on common file systems become "_", trailing dots and
// spaces are dropped and reserved device names get a "_" prefix.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || c > 0x7e || strings.IndexByte(`<>:"/\|?*`, c) >= 0 {
			b.WriteByte('_')
			continue
		}

		b.WriteByte(c)
	}

	out := strings.TrimRight(strings.TrimSpace(b.String()), ". ")
	switch {
	case out == "", out == "..":
		return "_"
	case isReservedDeviceName(out):
		return "_" + out
	default:
		return out
	}
}

// sanitizeEntryNames maps entries to unique file names, appending
// suffix(entry) when suffix is set. Uniqueness is case-insensitive so output
// is stable on case-folding file systems.
func sanitizeEntryNames(entries []Entry, suffix func(Entry) string) []string {
	out := make([]string, len(entries))
	used := make(map[string]struct{}, len(entries))
	nextSuffix := make(map[string]int, len(entries))

	for i := range entries {
		name := SanitizeName(entries[i].Name)
		if suffix != nil {
			name += suffix(entries[i])
		}

		out[i] = makeSanitizedNameUnique(name, used, nextSuffix)
	}

	return out
}

// fallbackNames returns, for every names[i] with suffixed[i] set, a unique
// name without suffix that collides neither with names nor with other
// fallbacks. Other positions get "".
func fallbackNames(names []string, suffixed []bool, suffix string) []string {
	out := make([]string, len(names))
	used := make(map[string]struct{}, len(names))
	nextSuffix := make(map[string]int)
	for _, name := range names {
		used[strings.ToLower(name)] = struct{}{}
	}

	for i, name := range names {
		if !suffixed[i] {
			continue
		}

		base, ok := strings.CutSuffix(name, suffix)
		if !ok || base == "" {
			continue
		}

		out[i] = makeSanitizedNameUnique(base, used, nextSuffix)
	}

	return out
}

// isReservedDeviceName reports whether name matches a reserved device identifier.
func isReservedDeviceName(name string) bool {
	candidate := strings.ToLower(strings.TrimSpace(name))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}

	_, ok := reservedDOSNames[strings.TrimRight(candidate, " ")]
	return ok
}

// makeSanitizedNameUnique resolves collisions by adding deterministic numeric suffix.
func makeSanitizedNameUnique(name string, used map[string]struct{}, nextSuffix map[string]int) string {
	key := strings.ToLower(name)
	if _, exists := used[key]; !exists {
		used[key] = struct{}{}
		return name
	}

	idx := max(nextSuffix[key], 2)
	for ; ; idx++ {
		candidate := withNumericSuffix(name, idx)
		candidateKey := strings.ToLower(candidate)
		if _, exists := used[candidateKey]; exists {
			continue
		}

		used[candidateKey] = struct{}{}
		nextSuffix[key] = idx + 1
		return candidate
	}
}

// withNumericSuffix appends "~N" before the extension.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "~" + strconv.Itoa(n) + ext
}
