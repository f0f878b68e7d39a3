package motif

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/prosite"
)

func TestFindMatchesSingleSpan(t *testing.T) {
	m := prosite.MustCompileMotif("PS_A", "A", "A-x(2)-[ST]")
	require.Equal(t, "A.{2}[ST]", m.Regex.String())

	spans := FindMatches(m, "QAXXSZZ", NoFilter)
	assert.Equal(t, []model.DomainSpan{{Accession: "PS_A", Start: 1, End: 5}}, spans)
}

func TestFindMatchesNegatedClass(t *testing.T) {
	m := prosite.MustCompileMotif("PS_B", "B", "{DE}-G")
	require.Equal(t, "[^DE]G", m.Regex.String())

	spans := FindMatches(m, "KGDGAG", NoFilter)
	assert.Equal(t, []model.DomainSpan{
		{Accession: "PS_B", Start: 0, End: 2},
		{Accession: "PS_B", Start: 4, End: 6},
	}, spans)
}

func TestFindMatchesNoMatchIsEmpty(t *testing.T) {
	m := prosite.MustCompileMotif("PS1", "n", "W-W-W")
	assert.Empty(t, FindMatches(m, "ACDEFGHIK", NoFilter))
	assert.Empty(t, FindMatches(nil, "ACDEFGHIK", NoFilter))
}

func TestFindMatchesMinLengthIsStrict(t *testing.T) {
	m := prosite.MustCompileMotif("PS1", "n", "C-x(2,6)-C")

	// "CAAC" is 4 long, "CAAAAAC" is 7 long.
	seq := "CAACWWWWWWWCAAAAAC"
	assert.Len(t, FindMatches(m, seq, NoFilter), 2)

	spans := FindMatches(m, seq, 4)
	assert.Equal(t, []model.DomainSpan{{Accession: "PS1", Start: 11, End: 18}}, spans)

	assert.Empty(t, FindMatches(m, seq, 7))
}

func TestFindMatchesSkipsZeroWidth(t *testing.T) {
	m := prosite.MustCompileMotif("PS1", "anchor", "<")
	assert.Empty(t, FindMatches(m, "MKV", NoFilter))
}

func TestFindMatchesAnchors(t *testing.T) {
	nterm := prosite.MustCompileMotif("PS1", "n", "<M-K")
	assert.Len(t, FindMatches(nterm, "MKAMK", NoFilter), 1)

	cterm := prosite.MustCompileMotif("PS2", "c", "K-L>")
	spans := FindMatches(cterm, "KLAKL", NoFilter)
	assert.Equal(t, []model.DomainSpan{{Accession: "PS2", Start: 3, End: 5}}, spans)
}

func TestFindMatchesInvariants(t *testing.T) {
	motifs := []*prosite.CompiledMotif{
		prosite.MustCompileMotif("PS1", "a", "[AG]-x(1,4)-G"),
		prosite.MustCompileMotif("PS2", "b", "{P}-[ST]"),
		prosite.MustCompileMotif("PS3", "c", "C-x(2,4)-C"),
	}
	rng := rand.New(rand.NewSource(7))
	const residues = "ACDEFGHIKLMNPQRSTVWY"

	for trial := 0; trial < 200; trial++ {
		b := make([]byte, rng.Intn(80))
		for i := range b {
			b[i] = residues[rng.Intn(len(residues))]
		}
		seq := string(b)

		for _, m := range motifs {
			spans := FindMatches(m, seq, NoFilter)
			for i, s := range spans {
				require.True(t, 0 <= s.Start && s.Start < s.End && s.End <= len(seq), "span %v out of bounds for %q", s, seq)
				if i > 0 {
					require.LessOrEqual(t, spans[i-1].End, s.Start, "overlapping spans in %q", seq)
				}
			}
		}
	}
}

func TestScanOrdersAcrossCatalog(t *testing.T) {
	catalog := prosite.NewCatalog(
		prosite.MustCompileMotif("PS2", "b", "{DE}-G"),
		prosite.MustCompileMotif("PS1", "a", "A-x(2)-[ST]"),
	)

	spans := Scan(catalog, "KGAXXSAG", NoFilter)
	assert.Equal(t, []model.DomainSpan{
		{Accession: "PS2", Start: 0, End: 2},
		{Accession: "PS1", Start: 2, End: 6},
		{Accession: "PS2", Start: 6, End: 8},
	}, spans)

	assert.Empty(t, Scan(nil, "KG", NoFilter))
}

func TestPeptideIndexLookup(t *testing.T) {
	records := []model.Record{
		model.NewQuerySequence("Q1", "MKGDG-AG"),
		model.NewHit(nil, model.Hit{SubjectID: "h1@sp", Original: "GDGKGDG"}),
		model.NewHit(nil, model.Hit{SubjectID: "h2@sp", Trimmed: "AAA"}),
	}
	idx := NewPeptideIndex(records)
	assert.Equal(t, 3, idx.Len())

	hits, err := idx.Lookup("gdg")
	require.NoError(t, err)
	assert.Equal(t, []PeptideHit{
		{RecordID: "Q1", Start: 2, End: 5},
		{RecordID: "h1@sp", Start: 0, End: 3},
		{RecordID: "h1@sp", Start: 4, End: 7},
	}, hits)

	// "GA" spans the Q1 gap but the ungapped sequence is MKGDGAG.
	hits, err = idx.Lookup("GAG")
	require.NoError(t, err)
	assert.Equal(t, []PeptideHit{{RecordID: "Q1", Start: 4, End: 7}}, hits)

	// Never across record boundaries: Q1 ends in "AG", h1 starts with "GDG".
	hits, err = idx.Lookup("AGGDG")
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = idx.Lookup("")
	assert.Error(t, err)
	_, err = idx.Lookup("A-G")
	assert.Error(t, err)
}
