// Package blast turns BLAST tabular output into Hit records and writes the
// per-query input files for the external aligner.
package blast

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/richinex/motifmap/alignment"
	"github.com/richinex/motifmap/model"
)

// ErrMalformedLine is returned for a hit line that cannot be parsed.
var ErrMalformedLine = errors.New("malformed hit line")

// Column layouts accepted by ParseTabular.
const (
	// indexedColumns: index qseqid sseqid sseq evalue qcovs pident qstart qend
	indexedColumns = 9
	// rawColumns: -outfmt "6 qseqid sseqid sseq evalue qcovs pident qstart qend"
	rawColumns = 8
)

// ParseTabular reads one hit per line. Every hit's query id is added to
// registry. originals maps subject id to the full-length subject sequence;
// hits whose subject is missing from it keep only the BLAST fragment.
func ParseTabular(r io.Reader, registry *model.QueryRegistry, originals map[string]string) ([]*model.Hit, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var hits []*model.Hit
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		h, err := parseLine(line, lineNo)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		h.Original = originals[h.SubjectID]
		hits = append(hits, model.NewHit(registry, h))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}
	return hits, nil
}

func parseLine(line string, lineNo int) (model.Hit, error) {
	fields := strings.Split(line, "\t")

	var h model.Hit
	switch len(fields) {
	case indexedColumns:
		idx, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return h, fmt.Errorf("%w: index %q", ErrMalformedLine, fields[0])
		}
		h.Index = idx
		fields = fields[1:]
	case rawColumns:
		h.Index = lineNo
	default:
		return h, fmt.Errorf("%w: expected %d or %d columns, got %d",
			ErrMalformedLine, rawColumns, indexedColumns, len(fields))
	}

	h.QueryID = strings.TrimSpace(fields[0])
	h.SubjectID = strings.TrimSpace(fields[1])
	h.Trimmed = strings.TrimSpace(fields[2])
	if h.QueryID == "" || h.SubjectID == "" {
		return h, fmt.Errorf("%w: empty query or subject id", ErrMalformedLine)
	}

	var err error
	if h.EValue, err = parseFloat("evalue", fields[3]); err != nil {
		return h, err
	}
	if h.QueryCoverage, err = parseFloat("qcovs", fields[4]); err != nil {
		return h, err
	}
	if h.Identity, err = parseFloat("pident", fields[5]); err != nil {
		return h, err
	}
	if h.QStart, err = parseInt("qstart", fields[6]); err != nil {
		return h, err
	}
	if h.QEnd, err = parseInt("qend", fields[7]); err != nil {
		return h, err
	}
	return h, nil
}

func parseFloat(name, val string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedLine, name, val)
	}
	return f, nil
}

func parseInt(name, val string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedLine, name, val)
	}
	return i, nil
}

// Thresholds selects hits worth keeping. Zero values disable a check.
type Thresholds struct {
	MaxEValue   float64
	MinCoverage float64
	MinIdentity float64 // strict: identity must exceed it
}

// Filter returns the hits that pass every enabled threshold, in input order.
func Filter(hits []*model.Hit, t Thresholds) []*model.Hit {
	kept := make([]*model.Hit, 0, len(hits))
	for _, h := range hits {
		if t.MaxEValue > 0 && h.EValue > t.MaxEValue {
			continue
		}
		if t.MinCoverage > 0 && h.QueryCoverage < t.MinCoverage {
			continue
		}
		if t.MinIdentity > 0 && h.Identity <= t.MinIdentity {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

// ByQuery groups hits by query id.
func ByQuery(hits []*model.Hit) map[string][]*model.Hit {
	groups := make(map[string][]*model.Hit)
	for _, h := range hits {
		groups[h.QueryID] = append(groups[h.QueryID], h)
	}
	return groups
}

// WriteAlignmentInput writes the multi-FASTA the aligner consumes for one
// query: every hit of that query (full-length sequence when known), then
// the query itself if querySeq is not empty.
func WriteAlignmentInput(w io.Writer, queryID string, hits []*model.Hit, querySeq string) error {
	var records []alignment.FastaRecord
	for _, h := range hits {
		if h.QueryID != queryID {
			continue
		}
		records = append(records, alignment.FastaRecord{ID: h.SubjectID, Sequence: h.Ungapped()})
	}
	if querySeq != "" {
		records = append(records, alignment.FastaRecord{ID: queryID, Sequence: querySeq})
	}
	return alignment.WriteFasta(w, records)
}
