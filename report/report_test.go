package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/motifmap/model"
)

func annotatedHits(registry *model.QueryRegistry) []*model.Hit {
	h1 := model.NewHit(registry, model.Hit{QueryID: "Q1_A", SubjectID: "s1@Species_one"})
	h1.SetDomains([]model.DomainSpan{
		{Accession: "PS00017", Start: 10, End: 18},
		{Accession: "PS00001", Start: 3, End: 7},
	})
	h1.AssignAlignment("MK-V")
	_ = h1.SetAlignedAnnotations(nil, []model.Segment{{Start: 0, End: 2}, {Start: 3, End: 4}})

	h2 := model.NewHit(registry, model.Hit{QueryID: "Q1_A", SubjectID: "s2@Species_two"})
	h2.SetDomains(nil)

	other := model.NewHit(registry, model.Hit{QueryID: "Q2_B", SubjectID: "s3@Species_three"})
	other.SetDomains([]model.DomainSpan{{Accession: "PS99999", Start: 0, End: 5}})
	return []*model.Hit{h1, h2, other}
}

func TestWriteDomains(t *testing.T) {
	hits := annotatedHits(model.NewQueryRegistry())
	names := map[string]string{"PS00001": "ASN_GLYCOSYLATION", "PS00017": "ATP_GTP_A"}

	var b strings.Builder
	require.NoError(t, WriteDomains(&b, "Q1_A", hits, names))

	want := DomainHeader + "\n\n" +
		"Q1_A\ts1 @ Species_one\tPS00001\tASN_GLYCOSYLATION\t3-7\n" +
		"Q1_A\ts1 @ Species_one\tPS00017\tATP_GTP_A\t10-18\n" +
		"\n" +
		"\n"
	assert.Equal(t, want, b.String())
}

func TestWriteDomainsUnknownName(t *testing.T) {
	hits := annotatedHits(model.NewQueryRegistry())

	var b strings.Builder
	require.NoError(t, WriteDomains(&b, "Q2_B", hits, nil))
	assert.Contains(t, b.String(), "Q2_B\ts3 @ Species_three\tPS99999\t-\t0-5\n")
}

func TestWriteSummary(t *testing.T) {
	registry := model.NewQueryRegistry()
	hits := annotatedHits(registry)
	query := model.NewQuerySequence("Q1_A", "MKV")

	var b strings.Builder
	require.NoError(t, WriteSummary(&b, registry, hits, []*model.QuerySequence{query}))

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "QUERY"))
	assert.Contains(t, lines[1], "(query)")
	assert.Contains(t, lines[1], "unannotated")
	assert.Contains(t, lines[2], "s1 @ Species_one")
	assert.Contains(t, lines[2], "fully-annotated")
	assert.Equal(t, []string{"Q1_A", "s1", "@", "Species_one", "fully-annotated", "2", "0", "2"}, strings.Fields(lines[2]))
	assert.Contains(t, lines[3], "raw-annotated")
	assert.True(t, strings.HasPrefix(lines[4], "Q2_B"))
}
