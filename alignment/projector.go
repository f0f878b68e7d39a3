// Package alignment works with the gapped rows of a multiple sequence
// alignment: where the real residues are, and which motifs can be seen in
// the row as rendered.
//
// The gapped search is an independent search in a different string, not a
// projection of the ungapped results. A motif that straddles a gap run in
// the alignment does not match in the gapped row even though it matches the
// ungapped sequence; callers must not treat aligned spans as a coordinate
// remap of raw spans.
package alignment

import (
	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/motif"
	"github.com/richinex/motifmap/prosite"
)

// ComputeSegments returns the maximal runs of residue characters (A-Z) in
// gapped, as offsets into gapped. Segments come out ascending, and consecutive
// segments are separated by at least one gap character.
func ComputeSegments(gapped string) []model.Segment {
	var segments []model.Segment
	start := -1
	for i := 0; i < len(gapped); i++ {
		if !model.IsResidue(gapped[i]) {
			if start >= 0 {
				segments = append(segments, model.Segment{Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		segments = append(segments, model.Segment{Start: start, End: len(gapped)})
	}
	return segments
}

// FindAlignedDomains runs the catalog directly against the gapped row,
// dropping spans not longer than minLength.
func FindAlignedDomains(catalog *prosite.Catalog, gapped string, minLength int) []model.DomainSpan {
	return motif.Scan(catalog, gapped, minLength)
}

// Extent returns the first and last aligned residue offsets of a row,
// the horizontal bounds a renderer draws the sequence line between.
// ok is false for a row with no residues.
func Extent(segments []model.Segment) (start, end int, ok bool) {
	if len(segments) == 0 {
		return 0, 0, false
	}
	return segments[0].Start, segments[len(segments)-1].End, true
}
