// Package model provides the sequence record types shared across packages.
//
// Coordinates are half-open residue offsets. A DomainSpan or Segment only
// makes sense relative to the string it was computed on: the ungapped
// sequence for raw domains, the gapped alignment row for aligned domains and
// segments.
package model

import (
	"fmt"
	"sort"
)

// DomainSpan is a motif match [Start, End) tagged with the motif accession.
type DomainSpan struct {
	Accession string `json:"accession"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

// Len returns the number of residues covered.
func (d DomainSpan) Len() int {
	return d.End - d.Start
}

// String formats the span the way domain reports print it.
func (d DomainSpan) String() string {
	return fmt.Sprintf("%s:%d-%d", d.Accession, d.Start, d.End)
}

// Segment is a maximal run of non-gap characters [Start, End) in a gapped sequence.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of residues covered.
func (s Segment) Len() int {
	return s.End - s.Start
}

// SortSpans orders spans by (Start, Accession). Span order out of the
// localization pass is not part of its contract; consumers that care sort.
func SortSpans(spans []DomainSpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		if spans[i].Accession != spans[j].Accession {
			return spans[i].Accession < spans[j].Accession
		}
		return spans[i].End < spans[j].End
	})
}

// AnnotationState tracks how far a record has progressed through localization.
type AnnotationState int

const (
	// Unannotated records have not been searched yet.
	Unannotated AnnotationState = iota
	// RawAnnotated records carry domains found in the ungapped sequence.
	// Records whose query never got an alignment stay here.
	RawAnnotated
	// FullyAnnotated records also carry aligned domains and segments.
	FullyAnnotated
)

// String returns the string representation of the state.
func (s AnnotationState) String() string {
	switch s {
	case Unannotated:
		return "unannotated"
	case RawAnnotated:
		return "raw-annotated"
	case FullyAnnotated:
		return "fully-annotated"
	default:
		return "unknown"
	}
}

// ParseAnnotationState parses the String form back into a state.
func ParseAnnotationState(s string) (AnnotationState, error) {
	switch s {
	case "unannotated":
		return Unannotated, nil
	case "raw-annotated":
		return RawAnnotated, nil
	case "fully-annotated":
		return FullyAnnotated, nil
	default:
		return Unannotated, fmt.Errorf("unknown annotation state: %q", s)
	}
}
