package localize

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/prosite"
)

func testService(minAligned int) *Service {
	return New(Options{
		MinAlignedLength: minAligned,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func testCatalog() *prosite.Catalog {
	return prosite.NewCatalog(
		prosite.MustCompileMotif("PS00001", "SHORT", "K-G"),
		prosite.MustCompileMotif("PS00017", "LONG", "C-x(3)-C"),
	)
}

func TestLocalizeFullPass(t *testing.T) {
	registry := model.NewQueryRegistry()
	aligned := model.NewHit(registry, model.Hit{QueryID: "Q1_A", SubjectID: "s1@sp", Original: "KGCAAACW"})
	aligned.AssignAlignment("KG--CAAACW")
	unaligned := model.NewHit(registry, model.Hit{QueryID: "Q2_B", SubjectID: "s2@sp", Original: "WKGW"})
	query := model.NewQuerySequence("Q1_A", "KG--CAAAC-")
	query.AssignAlignment("KG--CAAAC-")

	records := Records([]*model.Hit{aligned, unaligned}, []*model.QuerySequence{query})
	summary := testService(DefaultMinAlignedLength).Localize(testCatalog(), records)

	assert.Equal(t, Summary{
		Records:      3,
		RawSpans:     5,
		AlignedSpans: 2,
		Segments:     4,
		Aligned:      2,
		Unaligned:    1,
	}, summary)

	// Raw search is unfiltered: the two-residue K-G match is kept.
	assert.Equal(t, []model.DomainSpan{
		{Accession: "PS00001", Start: 0, End: 2},
		{Accession: "PS00017", Start: 2, End: 7},
	}, aligned.Domains())

	// Aligned search drops K-G (length 2 <= 4) and reports gapped offsets.
	assert.Equal(t, []model.DomainSpan{{Accession: "PS00017", Start: 4, End: 9}}, aligned.AlignedDomains())
	assert.Equal(t, []model.Segment{{Start: 0, End: 2}, {Start: 4, End: 10}}, aligned.Segments())
	assert.Equal(t, model.FullyAnnotated, aligned.State())

	assert.Equal(t, []model.DomainSpan{{Accession: "PS00001", Start: 1, End: 3}}, unaligned.Domains())
	assert.Empty(t, unaligned.AlignedDomains())
	assert.Empty(t, unaligned.Segments())
	assert.Equal(t, model.RawAnnotated, unaligned.State())

	assert.Equal(t, []model.Segment{{Start: 0, End: 2}, {Start: 4, End: 9}}, query.Segments())
	assert.Equal(t, model.FullyAnnotated, query.State())
}

func TestLocalizeIsIdempotent(t *testing.T) {
	hit := model.NewHit(nil, model.Hit{SubjectID: "s@sp", Original: "KGCAAACKG"})
	hit.AssignAlignment("KGCAAAC-KG")
	records := []model.Record{hit}
	svc := testService(DefaultMinAlignedLength)

	svc.Localize(testCatalog(), records)
	first := hit.Snapshot()
	svc.Localize(testCatalog(), records)

	assert.Equal(t, first, hit.Snapshot())
	assert.Len(t, hit.Domains(), 3)
}

func TestLocalizeRawThenAligned(t *testing.T) {
	hit := model.NewHit(nil, model.Hit{SubjectID: "s@sp", Original: "CAAAC"})
	records := []model.Record{hit}
	svc := testService(0)

	raw := svc.LocalizeRaw(testCatalog(), records)
	assert.Equal(t, 1, raw.RawSpans)
	assert.Equal(t, model.RawAnnotated, hit.State())

	// Alignment arrives later from the external aligner.
	hit.AssignAlignment("CA-AAC")
	aligned := svc.LocalizeAligned(testCatalog(), records)
	assert.Equal(t, 1, aligned.Aligned)
	assert.Equal(t, model.FullyAnnotated, hit.State())
	// The gap breaks C-x(3)-C in the gapped row.
	assert.Empty(t, hit.AlignedDomains())
	assert.Equal(t, []model.Segment{{Start: 0, End: 2}, {Start: 3, End: 6}}, hit.Segments())
}

func TestLocalizeEmptyCatalog(t *testing.T) {
	hit := model.NewHit(nil, model.Hit{SubjectID: "s@sp", Original: "KG"})
	hit.AssignAlignment("KG")
	summary := testService(0).Localize(prosite.NewCatalog(), []model.Record{hit})

	assert.Zero(t, summary.RawSpans)
	assert.Equal(t, 1, summary.Segments)
	assert.Equal(t, model.FullyAnnotated, hit.State())
}

func TestNewClampsNegativeThreshold(t *testing.T) {
	hit := model.NewHit(nil, model.Hit{SubjectID: "s@sp", Original: "KG"})
	hit.AssignAlignment("KG")
	testService(-3).Localize(testCatalog(), []model.Record{hit})
	require.Len(t, hit.AlignedDomains(), 1)
}

func TestDefaultOptions(t *testing.T) {
	assert.Equal(t, DefaultMinAlignedLength, DefaultOptions().MinAlignedLength)
}

func TestSplitPassesSummarizeLikeLocalize(t *testing.T) {
	newHit := func() *model.Hit {
		hit := model.NewHit(nil, model.Hit{SubjectID: "s@sp", Original: "KGCAAAC"})
		hit.AssignAlignment("KG--CAAAC")
		return hit
	}

	var whole, split bytes.Buffer
	wholeService := New(Options{MinAlignedLength: 4, Logger: slog.New(slog.NewTextHandler(&whole, nil))})
	splitService := New(Options{MinAlignedLength: 4, Logger: slog.New(slog.NewTextHandler(&split, nil))})

	records := []model.Record{newHit()}
	want := wholeService.Localize(testCatalog(), records)

	records = []model.Record{newHit()}
	raw := splitService.LocalizeRaw(testCatalog(), records)
	aligned := splitService.LocalizeAligned(testCatalog(), records)
	got := splitService.Summarize(raw, aligned)

	assert.Equal(t, want, got)
	assert.Equal(t, Summary{Records: 1, RawSpans: 2, AlignedSpans: 1, Segments: 2, Aligned: 1}, got)
	assert.Contains(t, split.String(), "domains localized")
	assert.Contains(t, split.String(), "raw_spans=2")
}
