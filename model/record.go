package model

import (
	"errors"
	"strings"
)

// ErrNoAlignment is returned when aligned annotations are written to a
// record that has no gapped sequence.
var ErrNoAlignment = errors.New("record has no aligned sequence")

// Record is a sequence that can be annotated with motif locations.
// Hit and QuerySequence are the two implementations.
type Record interface {
	// RecordID returns the identifier the record carries in alignment output.
	RecordID() string
	// Ungapped returns the residue sequence searched for raw domains.
	Ungapped() string
	// Annotated returns the record's annotation state, owned by the record.
	Annotated() *Annotations
}

// Annotations holds everything localization writes onto a record.
// Setters replace lists rather than append, so a second pass over the same
// record does not duplicate spans.
type Annotations struct {
	gapped         string
	hasAlignment   bool
	domains        []DomainSpan
	alignedDomains []DomainSpan
	segments       []Segment
	state          AnnotationState
}

// AnnotationSnapshot is a plain copy of Annotations, used to persist and
// restore records.
type AnnotationSnapshot struct {
	Gapped         string
	HasAlignment   bool
	State          AnnotationState
	Domains        []DomainSpan
	AlignedDomains []DomainSpan
	Segments       []Segment
}

// AssignAlignment attaches the gapped row produced by the external aligner.
func (a *Annotations) AssignAlignment(gapped string) {
	a.gapped = gapped
	a.hasAlignment = true
}

// HasAlignment reports whether a gapped sequence has been assigned.
func (a *Annotations) HasAlignment() bool {
	return a.hasAlignment
}

// Gapped returns the gapped sequence and whether one is assigned.
func (a *Annotations) Gapped() (string, bool) {
	return a.gapped, a.hasAlignment
}

// State returns the current annotation state.
func (a *Annotations) State() AnnotationState {
	return a.state
}

// Domains returns a copy of the spans found in the ungapped sequence.
func (a *Annotations) Domains() []DomainSpan {
	return append([]DomainSpan(nil), a.domains...)
}

// AlignedDomains returns a copy of the spans found in the gapped sequence.
func (a *Annotations) AlignedDomains() []DomainSpan {
	return append([]DomainSpan(nil), a.alignedDomains...)
}

// Segments returns a copy of the non-gap segments of the gapped sequence.
func (a *Annotations) Segments() []Segment {
	return append([]Segment(nil), a.segments...)
}

// SetDomains replaces the raw domain list.
func (a *Annotations) SetDomains(spans []DomainSpan) {
	a.domains = append([]DomainSpan(nil), spans...)
	if a.state == Unannotated {
		a.state = RawAnnotated
	}
}

// SetAlignedAnnotations replaces the aligned domain and segment lists.
// Returns ErrNoAlignment if no gapped sequence is assigned.
func (a *Annotations) SetAlignedAnnotations(spans []DomainSpan, segments []Segment) error {
	if !a.hasAlignment {
		return ErrNoAlignment
	}
	a.alignedDomains = append([]DomainSpan(nil), spans...)
	a.segments = append([]Segment(nil), segments...)
	a.state = FullyAnnotated
	return nil
}

// Snapshot copies the annotations out.
func (a *Annotations) Snapshot() AnnotationSnapshot {
	return AnnotationSnapshot{
		Gapped:         a.gapped,
		HasAlignment:   a.hasAlignment,
		State:          a.state,
		Domains:        a.Domains(),
		AlignedDomains: a.AlignedDomains(),
		Segments:       a.Segments(),
	}
}

// Restore overwrites the annotations with a snapshot.
func (a *Annotations) Restore(s AnnotationSnapshot) {
	a.gapped = s.Gapped
	a.hasAlignment = s.HasAlignment
	a.state = s.State
	a.domains = append([]DomainSpan(nil), s.Domains...)
	a.alignedDomains = append([]DomainSpan(nil), s.AlignedDomains...)
	a.segments = append([]Segment(nil), s.Segments...)
}

// Hit is a BLAST match belonging to exactly one query.
type Hit struct {
	Index            int
	QueryID          string
	SubjectID        string // "<locus_tag>@<species>"
	SubjectAccession string
	SubjectSpecies   string
	// Original is the full-length subject sequence, empty if it could not be
	// recovered. Trimmed is the aligned subject fragment BLAST reported.
	Original      string
	Trimmed       string
	EValue        float64
	QueryCoverage float64
	Identity      float64
	QStart        int
	QEnd          int

	Annotations
}

// NewHit copies h, splits its subject id and registers its query.
func NewHit(registry *QueryRegistry, h Hit) *Hit {
	hit := h
	hit.Annotations = Annotations{}
	hit.SubjectAccession, hit.SubjectSpecies = SplitSubjectID(h.SubjectID)
	if registry != nil {
		registry.Add(h.QueryID)
	}
	return &hit
}

// RecordID implements Record.
func (h *Hit) RecordID() string {
	return h.SubjectID
}

// Ungapped implements Record. The full-length sequence wins over the
// BLAST fragment so raw domain coordinates refer to the whole protein.
func (h *Hit) Ungapped() string {
	if h.Original != "" {
		return h.Original
	}
	return StripGaps(h.Trimmed)
}

// Annotated implements Record.
func (h *Hit) Annotated() *Annotations {
	return &h.Annotations
}

// SubjectLabel returns the subject id with a spaced separator, as reports print it.
func (h *Hit) SubjectLabel() string {
	if h.SubjectSpecies == "" {
		return h.SubjectAccession
	}
	return h.SubjectAccession + " @ " + h.SubjectSpecies
}

// QuerySequence is the probe sequence of one query group.
type QuerySequence struct {
	ID       string
	Sequence string

	Annotations
}

// NewQuerySequence creates an unannotated query record.
func NewQuerySequence(id, sequence string) *QuerySequence {
	return &QuerySequence{ID: id, Sequence: StripGaps(sequence)}
}

// RecordID implements Record.
func (q *QuerySequence) RecordID() string {
	return q.ID
}

// Ungapped implements Record.
func (q *QuerySequence) Ungapped() string {
	return q.Sequence
}

// Annotated implements Record.
func (q *QuerySequence) Annotated() *Annotations {
	return &q.Annotations
}

// SplitSubjectID splits "<locus_tag>@<species>". Ids without a separator
// are returned whole as the accession.
func SplitSubjectID(id string) (accession, species string) {
	accession, species, _ = strings.Cut(id, "@")
	return accession, species
}

// IsResidue reports whether c is an uppercase residue code. Segments are
// runs of residues; every other byte of an aligned row (gap padding, '*',
// '~', lowercase insert states) separates them.
func IsResidue(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// IsGap reports whether c is gap padding, '-' or '.'. StripGaps removes
// only these, so stop codons and lowercase residues survive in ungapped
// sequences.
func IsGap(c byte) bool {
	return c == '-' || c == '.'
}

// StripGaps removes alignment padding from s.
func StripGaps(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return r == '-' || r == '.' }) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !IsGap(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Verify both variants implement Record
var _ Record = (*Hit)(nil)
var _ Record = (*QuerySequence)(nil)
