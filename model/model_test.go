package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRegistryIsIdempotent(t *testing.T) {
	r := NewQueryRegistry()
	assert.True(t, r.Add("Q1_ABCDEF"))
	assert.False(t, r.Add("Q1_ABCDEF"))
	assert.True(t, r.Add("Q2_XYZ"))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"Q1_ABCDEF", "Q2_XYZ"}, r.IDs())
	assert.True(t, r.Contains("Q2_XYZ"))
	assert.False(t, r.Contains("Q3"))
}

func TestQueryRegistryLoadReplaces(t *testing.T) {
	r := NewQueryRegistry("Q1")
	r.Load([]string{"Q7", "Q8", "Q7"})

	assert.Equal(t, []string{"Q7", "Q8"}, r.IDs())
	assert.False(t, r.Contains("Q1"))
}

func TestZeroValueRegistryAdd(t *testing.T) {
	var r QueryRegistry
	assert.True(t, r.Add("Q1"))
	assert.True(t, r.Contains("Q1"))
}

func TestNewHitRegistersQueryAndSplitsSubject(t *testing.T) {
	registry := NewQueryRegistry()
	hit := NewHit(registry, Hit{
		Index:     1,
		QueryID:   "Q1_ABCDEF",
		SubjectID: "PSHAa0001@Pseudoalteromonas_haloplanktis",
		Trimmed:   "MK-LV",
	})
	NewHit(registry, Hit{QueryID: "Q1_ABCDEF", SubjectID: "b@c"})

	assert.Equal(t, []string{"Q1_ABCDEF"}, registry.IDs())
	assert.Equal(t, "PSHAa0001", hit.SubjectAccession)
	assert.Equal(t, "Pseudoalteromonas_haloplanktis", hit.SubjectSpecies)
	assert.Equal(t, "PSHAa0001 @ Pseudoalteromonas_haloplanktis", hit.SubjectLabel())
	assert.Equal(t, "PSHAa0001@Pseudoalteromonas_haloplanktis", hit.RecordID())
}

func TestHitUngappedPrefersOriginal(t *testing.T) {
	hit := NewHit(nil, Hit{SubjectID: "x", Trimmed: "MK-LV"})
	assert.Equal(t, "MKLV", hit.Ungapped())

	hit.Original = "MMMKLVAAA"
	assert.Equal(t, "MMMKLVAAA", hit.Ungapped())
}

func TestSubjectWithoutSeparator(t *testing.T) {
	acc, species := SplitSubjectID("locus42")
	assert.Equal(t, "locus42", acc)
	assert.Empty(t, species)

	hit := NewHit(nil, Hit{SubjectID: "locus42"})
	assert.Equal(t, "locus42", hit.SubjectLabel())
}

func TestAnnotationStateTransitions(t *testing.T) {
	q := NewQuerySequence("Q1", "AC--DE")
	a := q.Annotated()
	assert.Equal(t, "ACDE", q.Ungapped())
	assert.Equal(t, Unannotated, a.State())

	a.SetDomains([]DomainSpan{{Accession: "PS1", Start: 0, End: 2}})
	assert.Equal(t, RawAnnotated, a.State())

	err := a.SetAlignedAnnotations(nil, nil)
	require.ErrorIs(t, err, ErrNoAlignment)
	assert.Equal(t, RawAnnotated, a.State())

	a.AssignAlignment("AC--DE")
	require.NoError(t, a.SetAlignedAnnotations(nil, []Segment{{0, 2}, {4, 6}}))
	assert.Equal(t, FullyAnnotated, a.State())

	// Re-running the raw pass must not demote the record.
	a.SetDomains(nil)
	assert.Equal(t, FullyAnnotated, a.State())
}

func TestSettersReplaceLists(t *testing.T) {
	var a Annotations
	spans := []DomainSpan{{Accession: "PS1", Start: 0, End: 3}}
	a.SetDomains(spans)
	a.SetDomains(spans)
	assert.Len(t, a.Domains(), 1)

	// Returned slices are copies.
	got := a.Domains()
	got[0].Start = 99
	assert.Equal(t, 0, a.Domains()[0].Start)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	var a Annotations
	a.AssignAlignment("A-C")
	a.SetDomains([]DomainSpan{{Accession: "PS2", Start: 1, End: 2}})
	require.NoError(t, a.SetAlignedAnnotations(
		[]DomainSpan{{Accession: "PS2", Start: 0, End: 1}},
		[]Segment{{0, 1}, {2, 3}},
	))

	var b Annotations
	b.Restore(a.Snapshot())
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	gapped, ok := b.Gapped()
	assert.True(t, ok)
	assert.Equal(t, "A-C", gapped)
}

func TestSortSpans(t *testing.T) {
	spans := []DomainSpan{
		{Accession: "PS3", Start: 5, End: 9},
		{Accession: "PS2", Start: 1, End: 4},
		{Accession: "PS1", Start: 5, End: 7},
	}
	SortSpans(spans)
	assert.Equal(t, []DomainSpan{
		{Accession: "PS2", Start: 1, End: 4},
		{Accession: "PS1", Start: 5, End: 7},
		{Accession: "PS3", Start: 5, End: 9},
	}, spans)
}

func TestAnnotationStateParse(t *testing.T) {
	for _, s := range []AnnotationState{Unannotated, RawAnnotated, FullyAnnotated} {
		parsed, err := ParseAnnotationState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseAnnotationState("bogus")
	assert.Error(t, err)
}

func TestStripGaps(t *testing.T) {
	assert.Equal(t, "ACDEFGH", StripGaps("AC--DEF-GH"))
	assert.Equal(t, "ACD", StripGaps("A.C-D"))
	assert.Equal(t, "", StripGaps("---"))
}
