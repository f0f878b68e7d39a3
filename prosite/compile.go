// Package prosite compiles PROSITE patterns into Go regular expressions and
// builds the motif catalog used for domain localization.
//
// Translation is a fixed, ordered table of textual substitutions rather than
// a parser. PROSITE patterns never use lowercase x, < or > as residue codes,
// so the table is unambiguous over that grammar; ValidatePattern enforces the
// grammar before anything is compiled so an entry outside it is rejected
// instead of silently mistranslated.
package prosite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPattern marks catalog entries that carry no pattern
	// (profiles, rules, documentation-only records).
	ErrEmptyPattern = errors.New("entry has no pattern")
	// ErrUnsupportedSymbol marks patterns containing a symbol outside the
	// PROSITE pattern grammar.
	ErrUnsupportedSymbol = errors.New("pattern contains unsupported symbol")
)

// substitution is one row of the translation table.
type substitution struct {
	from, to string
}

// substitutions is applied top to bottom. `{` and `}` must be rewritten
// before `(` and `)` produce the quantifier braces, otherwise the
// quantifier braces would be turned into negated classes.
var substitutions = []substitution{
	{"-", ""},
	{"{", "[^"},
	{"}", "]"},
	{"(", "{"},
	{")", "}"},
	{"x", "."},
	{">", "$"},
	{"<", "^"},
}

// Compile translates pattern text into regular expression syntax.
// Pure and deterministic.
func Compile(pattern string) string {
	for _, s := range substitutions {
		pattern = strings.ReplaceAll(pattern, s.from, s.to)
	}
	return pattern
}

// ValidatePattern checks that pattern only uses the PROSITE pattern
// alphabet: uppercase residue codes, x, separators, brackets, repeat
// counts and terminal anchors.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return ErrEmptyPattern
	}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case strings.IndexByte("x-,[]{}()<>", c) >= 0:
		default:
			return fmt.Errorf("%w %q at offset %d", ErrUnsupportedSymbol, c, i)
		}
	}
	return nil
}

// CompiledMotif is a catalog entry ready for matching.
// The source pattern text is not retained.
type CompiledMotif struct {
	Accession string
	Name      string
	Regex     *regexp.Regexp
}

// CompileMotif validates and compiles a catalog entry.
func CompileMotif(entry Entry) (*CompiledMotif, error) {
	if err := ValidatePattern(entry.Pattern); err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Accession, err)
	}
	re, err := regexp.Compile(Compile(entry.Pattern))
	if err != nil {
		return nil, fmt.Errorf("%s: compile %q: %w", entry.Accession, entry.Pattern, err)
	}
	return &CompiledMotif{
		Accession: entry.Accession,
		Name:      entry.Name,
		Regex:     re,
	}, nil
}

// MustCompileMotif is like CompileMotif but panics on error.
// Intended for tests and fixed, known-good patterns.
func MustCompileMotif(accession, name, pattern string) *CompiledMotif {
	m, err := CompileMotif(Entry{Accession: accession, Name: name, Pattern: pattern})
	if err != nil {
		panic(fmt.Sprintf("prosite: %v", err))
	}
	return m
}
