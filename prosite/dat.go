package prosite

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Entry is one record of a prosite.dat file, reduced to the fields the
// catalog needs.
type Entry struct {
	Accession   string
	Name        string
	Type        string // PATTERN, MATRIX or RULE
	Description string
	Pattern     string // terminal '.' stripped; empty for non-pattern entries
	// SkipFlag marks high-frequency motifs (phosphorylation sites,
	// glycosylation sites, ...) that ScanProsite skips by default.
	SkipFlag bool
	// Malformed is set when the record's ID line could not be parsed.
	// The rest of the record is still read so the accession is known.
	Malformed bool
}

// ParseDat reads PROSITE entries from the prosite.dat line format.
// Records are terminated by "//". Lines before the first ID line (the file
// header) are ignored. A record with a broken ID line is returned with
// Malformed set; only read errors fail the parse.
func ParseDat(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		entries []Entry
		current Entry
		inEntry bool
	)

	flush := func() {
		if inEntry {
			current.Pattern = strings.TrimSuffix(current.Pattern, ".")
			current.Description = strings.TrimSpace(current.Description)
			entries = append(entries, current)
		}
		current = Entry{}
		inEntry = false
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "//") {
			flush()
			continue
		}
		if len(line) < 2 {
			continue
		}

		code := line[:2]
		value := ""
		if len(line) > 5 {
			value = strings.TrimSpace(line[5:])
		}

		if code == "ID" {
			flush()
			inEntry = true
			name, typ, ok := strings.Cut(value, ";")
			if !ok {
				current.Name = value
				current.Malformed = true
				continue
			}
			current.Name = strings.TrimSpace(name)
			current.Type = strings.TrimSuffix(strings.TrimSpace(typ), ".")
			continue
		}
		if !inEntry {
			continue
		}

		switch code {
		case "AC":
			current.Accession = strings.TrimSuffix(strings.TrimSpace(value), ";")
		case "DE":
			current.Description += " " + value
		case "PA":
			current.Pattern += value
		case "CC":
			for _, qualifier := range strings.Split(value, ";") {
				key, val, ok := strings.Cut(strings.TrimSpace(qualifier), "=")
				if ok && key == "/SKIP-FLAG" {
					current.SkipFlag = strings.EqualFold(val, "TRUE")
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading prosite entries: %w", err)
	}
	flush()

	return entries, nil
}
