// Package localize annotates sequence records with motif locations in both
// coordinate spaces.
//
// A record moves unannotated → raw-annotated (ungapped search) →
// fully-annotated (gapped search plus segments). The second step needs a
// gapped row from the external aligner; records that never get one stay
// raw-annotated, which is a valid end state.
//
// The pass is synchronous and does no I/O. It never fails: a motif that
// does not match contributes nothing, and a record without an alignment is
// skipped for the aligned step.
package localize

import (
	"log/slog"

	"github.com/richinex/motifmap/alignment"
	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/motif"
	"github.com/richinex/motifmap/prosite"
)

// DefaultMinAlignedLength drops aligned spans of four residues or fewer,
// which are too small to read on an alignment plot.
const DefaultMinAlignedLength = 4

// Options configures a localization pass.
type Options struct {
	// MinAlignedLength filters the gapped search only; the ungapped search
	// always reports every match.
	MinAlignedLength int
	Logger           *slog.Logger
}

// DefaultOptions returns the standard aligned-search threshold.
func DefaultOptions() Options {
	return Options{MinAlignedLength: DefaultMinAlignedLength}
}

// Summary counts what one pass wrote.
type Summary struct {
	Records      int
	RawSpans     int
	AlignedSpans int
	Segments     int
	Aligned      int // records that reached fully-annotated in this pass
	Unaligned    int // records left raw-annotated for lack of an alignment
}

// Service runs the localization pass.
type Service struct {
	opts   Options
	logger *slog.Logger
}

// New creates a service. A negative MinAlignedLength is treated as no filter.
func New(opts Options) *Service {
	if opts.MinAlignedLength < 0 {
		opts.MinAlignedLength = motif.NoFilter
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{opts: opts, logger: logger}
}

// Localize runs the raw search on every record and, for records with an
// alignment, the aligned search and segment computation. Each list is
// replaced, so running twice gives the same result as running once.
func (s *Service) Localize(catalog *prosite.Catalog, records []model.Record) Summary {
	raw := s.LocalizeRaw(catalog, records)
	aligned := s.LocalizeAligned(catalog, records)
	return s.Summarize(raw, aligned)
}

// Summarize merges a raw and an aligned pass into one summary and logs it.
// Callers that run the passes separately, with alignments arriving in
// between, use it to report the same way Localize does.
func (s *Service) Summarize(raw, aligned Summary) Summary {
	summary := Summary{
		Records:      max(raw.Records, aligned.Records),
		RawSpans:     raw.RawSpans,
		AlignedSpans: aligned.AlignedSpans,
		Segments:     aligned.Segments,
		Aligned:      aligned.Aligned,
		Unaligned:    aligned.Unaligned,
	}
	s.logger.Info("domains localized",
		"records", summary.Records,
		"raw_spans", summary.RawSpans,
		"aligned_spans", summary.AlignedSpans,
		"aligned_records", summary.Aligned,
		"unaligned_records", summary.Unaligned)
	return summary
}

// LocalizeRaw searches each record's ungapped sequence with no length filter.
func (s *Service) LocalizeRaw(catalog *prosite.Catalog, records []model.Record) Summary {
	summary := Summary{Records: len(records)}
	for _, r := range records {
		spans := motif.Scan(catalog, r.Ungapped(), motif.NoFilter)
		r.Annotated().SetDomains(spans)
		summary.RawSpans += len(spans)
	}
	return summary
}

// LocalizeAligned searches each record's gapped row and computes its
// segments. Records without an alignment are counted and left untouched.
func (s *Service) LocalizeAligned(catalog *prosite.Catalog, records []model.Record) Summary {
	summary := Summary{Records: len(records)}
	for _, r := range records {
		ann := r.Annotated()
		gapped, ok := ann.Gapped()
		if !ok {
			summary.Unaligned++
			s.logger.Debug("no alignment for record, keeping raw annotations", "record", r.RecordID())
			continue
		}

		spans := alignment.FindAlignedDomains(catalog, gapped, s.opts.MinAlignedLength)
		segments := alignment.ComputeSegments(gapped)
		// Cannot fail: the alignment presence was checked above.
		_ = ann.SetAlignedAnnotations(spans, segments)

		summary.AlignedSpans += len(spans)
		summary.Segments += len(segments)
		summary.Aligned++
	}
	return summary
}

// Records collects hits and query sequences into one Record slice.
func Records(hits []*model.Hit, queries []*model.QuerySequence) []model.Record {
	records := make([]model.Record, 0, len(hits)+len(queries))
	for _, h := range hits {
		records = append(records, h)
	}
	for _, q := range queries {
		records = append(records, q)
	}
	return records
}
