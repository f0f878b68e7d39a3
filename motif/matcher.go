// Package motif finds compiled motifs in residue strings.
//
// Matching is the regexp engine's leftmost, non-overlapping match set with
// greedy quantifiers. The matcher knows nothing about coordinate spaces: it
// reports offsets into whatever string it is handed, gapped or not.
package motif

import (
	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/prosite"
)

// NoFilter disables the minimum-length filter.
const NoFilter = 0

// FindMatches returns the non-overlapping matches of m in seq, sorted by start.
//
// With minLength > 0 a match is kept only if it is strictly longer than
// minLength residues. Zero-width matches (e.g. a pattern that is only an
// anchor) are never reported. A motif that does not occur yields nil.
func FindMatches(m *prosite.CompiledMotif, seq string, minLength int) []model.DomainSpan {
	if m == nil || m.Regex == nil {
		return nil
	}

	locs := m.Regex.FindAllStringIndex(seq, -1)
	if len(locs) == 0 {
		return nil
	}

	spans := make([]model.DomainSpan, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if end <= start {
			continue
		}
		if minLength > NoFilter && end-start <= minLength {
			continue
		}
		spans = append(spans, model.DomainSpan{
			Accession: m.Accession,
			Start:     start,
			End:       end,
		})
	}
	return spans
}

// Scan runs every motif of catalog against seq and returns all spans
// ordered by (start, accession). Spans of different motifs may overlap.
func Scan(catalog *prosite.Catalog, seq string, minLength int) []model.DomainSpan {
	if catalog == nil {
		return nil
	}

	var spans []model.DomainSpan
	catalog.Each(func(m *prosite.CompiledMotif) {
		spans = append(spans, FindMatches(m, seq, minLength)...)
	})
	model.SortSpans(spans)
	return spans
}
