// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug builds URL-friendly category slugs from display names.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest slug Truncate lets through.
const MaxLength = 80

// separators become a single hyphen; any other punctuation is dropped.
const separators = "-_/|&+,:;"

// Generate creates a URL-friendly slug from the given string. Accents are
// folded to their base letter, so "Crème Brûlée & Co." → "creme-brulee-co".
func Generate(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case unicode.IsSpace(r), strings.ContainsRune(separators, r):
			sep = true
		}
	}
	return b.String()
}

// Truncate shortens a generated slug to MaxLength, cutting at a hyphen
// when one is available so words stay whole.
func Truncate(s string) string {
	if len(s) <= MaxLength {
		return s
	}
	s = s[:MaxLength]
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// Unique returns base, or base with the smallest numeric suffix ("-2",
// "-3", ...) for which taken reports false.
func Unique(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}
