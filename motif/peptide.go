package motif

import (
	"fmt"
	"sort"
	"strings"

	"github.com/richinex/motifmap/internal/dsa"
	"github.com/richinex/motifmap/model"
)

// recordSeparator joins sequences in the index text. It is not a residue
// code, so no peptide can match across two records.
const recordSeparator = "\x00"

// PeptideHit is an exact peptide occurrence in a record's ungapped sequence.
type PeptideHit struct {
	RecordID string
	Start    int
	End      int
}

// PeptideIndex answers exact peptide queries over a fixed set of records.
type PeptideIndex struct {
	sa      *dsa.SuffixArray
	ids     []string
	offsets []int // start of each record in the index text
}

// NewPeptideIndex indexes the ungapped sequence of every record.
func NewPeptideIndex(records []model.Record) *PeptideIndex {
	var b strings.Builder
	idx := &PeptideIndex{
		ids:     make([]string, 0, len(records)),
		offsets: make([]int, 0, len(records)),
	}
	for _, r := range records {
		idx.ids = append(idx.ids, r.RecordID())
		idx.offsets = append(idx.offsets, b.Len())
		b.WriteString(strings.ToUpper(r.Ungapped()))
		b.WriteString(recordSeparator)
	}
	idx.sa = dsa.BuildSuffixArray(b.String())
	return idx
}

// Lookup returns every occurrence of peptide, ordered by record then start.
// The peptide is matched case-insensitively and must consist of letters.
func (p *PeptideIndex) Lookup(peptide string) ([]PeptideHit, error) {
	peptide = strings.ToUpper(strings.TrimSpace(peptide))
	if peptide == "" {
		return nil, fmt.Errorf("empty peptide")
	}
	for i := 0; i < len(peptide); i++ {
		if peptide[i] < 'A' || peptide[i] > 'Z' {
			return nil, fmt.Errorf("invalid residue %q in peptide", peptide[i])
		}
	}

	positions := p.sa.Search(peptide)
	hits := make([]PeptideHit, 0, len(positions))
	for _, pos := range positions {
		// Last record whose offset is <= pos.
		i := sort.Search(len(p.offsets), func(i int) bool { return p.offsets[i] > pos }) - 1
		start := pos - p.offsets[i]
		hits = append(hits, PeptideHit{
			RecordID: p.ids[i],
			Start:    start,
			End:      start + len(peptide),
		})
	}
	return hits, nil
}

// Len returns the number of indexed records.
func (p *PeptideIndex) Len() int {
	return len(p.ids)
}
