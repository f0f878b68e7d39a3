package blast

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/richinex/motifmap/alignment"
)

// maxQueryNameLen bounds the name part of a normalized query id.
const maxQueryNameLen = 6

// NormalizeQueries renames query records to "Q<n>_<NAME>", where NAME is
// the first six ASCII letters of the original id. The numeric prefix keeps
// ids unique when several queries share a name prefix; the short form keeps
// ids readable in aligner output file names, which QueryIDFromFilename
// splits on underscores.
func NormalizeQueries(records []alignment.FastaRecord) []alignment.FastaRecord {
	out := make([]alignment.FastaRecord, 0, len(records))
	for i, r := range records {
		out = append(out, alignment.FastaRecord{
			ID:       fmt.Sprintf("Q%d_%s", i+1, queryName(r.ID)),
			Sequence: r.Sequence,
		})
	}
	return out
}

func queryName(id string) string {
	var b strings.Builder
	for _, c := range id {
		if c < unicode.MaxASCII && unicode.IsLetter(c) {
			b.WriteRune(c)
			if b.Len() == maxQueryNameLen {
				break
			}
		}
	}
	return b.String()
}
