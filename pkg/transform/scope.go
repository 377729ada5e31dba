package transform

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scope tracks the names a unit already uses so introduced bindings never
// shadow or collide with them.
type Scope struct {
	used map[string]struct{}
}

// NewScope creates a scope seeded with names.
func NewScope(names ...string) *Scope {
	s := &Scope{used: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add marks name as used.
func (s *Scope) Add(name string) {
	s.used[name] = struct{}{}
}

// Has reports whether name is used.
func (s *Scope) Has(name string) bool {
	_, ok := s.used[name]
	return ok
}

// Len returns the number of used names.
func (s *Scope) Len() int {
	return len(s.used)
}

// GenerateUID returns a fresh name derived from hint and marks it used.
//
// The hint is turned into an identifier, stripped of leading underscores
// and trailing digits, then prefixed with "_"; a counter is appended from 2
// upward until the name is free: "cx" gives "_cx", "_cx2", "_cx3"...
func (s *Scope) GenerateUID(hint string) string {
	base := strings.TrimLeft(toIdentifier(hint), "_")
	base = strings.TrimRightFunc(base, isASCIIDigit)

	for i := 1; ; i++ {
		uid := "_" + base
		if i > 1 {
			uid += strconv.Itoa(i)
		}
		if !s.Has(uid) {
			s.Add(uid)
			return uid
		}
	}
}

// toIdentifier converts an arbitrary string into a valid identifier.
// Characters that cannot continue an identifier act as word separators: they
// are dropped and the following character is upper-cased ("my-helper" →
// "myHelper"). Non-ASCII letters and marks are kept ("café" → "café").
func toIdentifier(name string) string {
	var b strings.Builder
	upperNext := false
	leading := true

	for _, r := range name {
		if !isIdentRune(r) {
			upperNext = !leading
			continue
		}
		if leading && isASCIIDigit(r) {
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		leading = false
		b.WriteRune(r)
	}

	id := b.String()
	if id == "" {
		return "_"
	}
	if reservedWords[id] {
		return "_" + id
	}
	return id
}

func isIdentRune(r rune) bool {
	if r < utf8.RuneSelf {
		return r == '$' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || isASCIIDigit(r)
	}
	if r == '\u200c' || r == '\u200d' {
		return true
	}
	return unicode.In(r, unicode.L, unicode.Nl, unicode.Nd, unicode.Mn, unicode.Mc, unicode.Pc)
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "enum": true, "export": true, "extends": true,
	"false": true, "finally": true, "for": true, "function": true, "if": true,
	"import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true,
	"true": true, "try": true, "typeof": true, "var": true, "void": true,
	"while": true, "with": true, "yield": true, "let": true, "static": true,
	"implements": true, "interface": true, "package": true, "private": true,
	"protected": true, "public": true, "await": true, "arguments": true,
	"eval": true, "undefined": true, "NaN": true, "Infinity": true,
}
