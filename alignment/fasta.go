package alignment

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// FastaRecord is one FASTA entry. ID is the header up to the first
// whitespace; Sequence has line breaks removed and gaps kept.
type FastaRecord struct {
	ID          string
	Description string
	Sequence    string
}

// ParseFasta reads FASTA records from r. Sequence lines are concatenated;
// blank lines are ignored. Sequence data before the first header is an error.
func ParseFasta(r io.Reader) ([]FastaRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		records []FastaRecord
		current *FastaRecord
		seq     strings.Builder
		lineNo  int
	)

	flush := func() {
		if current != nil {
			current.Sequence = seq.String()
			records = append(records, *current)
		}
		seq.Reset()
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			header := strings.TrimSpace(line[1:])
			id, desc := header, ""
			if i := strings.IndexFunc(header, unicode.IsSpace); i >= 0 {
				id, desc = header[:i], strings.TrimSpace(header[i:])
			}
			current = &FastaRecord{ID: id, Description: desc}
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: sequence data before first FASTA header", lineNo)
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading FASTA: %w", err)
	}
	flush()

	return records, nil
}

// WriteFasta writes records with sequences on a single line each, followed
// by a blank line, the layout the aligner input files use.
func WriteFasta(w io.Writer, records []FastaRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		header := r.ID
		if r.Description != "" {
			header += " " + r.Description
		}
		if _, err := fmt.Fprintf(bw, ">%s\n%s\n\n", header, r.Sequence); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SequenceMap indexes records by id. Later duplicates win.
func SequenceMap(records []FastaRecord) map[string]string {
	m := make(map[string]string, len(records))
	for _, r := range records {
		m[r.ID] = r.Sequence
	}
	return m
}
