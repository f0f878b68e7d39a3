package alignment

import (
	"path/filepath"
	"strings"

	"github.com/richinex/motifmap/model"
)

// Group is the aligner output for one query: the query row plus one row
// per hit.
type Group struct {
	QueryID string
	Members []FastaRecord
}

// AssignGroup attaches each member's gapped row to the hit of the same
// query and subject id, and returns the query's own record built from the
// member whose id equals the query id. The returned record is nil when the
// group does not contain the query. assigned counts hits that received a row.
func AssignGroup(g Group, hits []*model.Hit) (query *model.QuerySequence, assigned int) {
	rows := make(map[string]string, len(g.Members))
	for _, m := range g.Members {
		rows[m.ID] = m.Sequence
	}

	for _, h := range hits {
		if h.QueryID != g.QueryID {
			continue
		}
		if row, ok := rows[h.SubjectID]; ok {
			h.AssignAlignment(row)
			assigned++
		}
	}

	if row, ok := rows[g.QueryID]; ok {
		query = model.NewQuerySequence(g.QueryID, row)
		query.AssignAlignment(row)
	}
	return query, assigned
}

// QueryIDFromFilename recovers the query id from an aligner file name
// such as "Q1_ABCDEF_aligned.fa" or "Q1_ABCDEF.fa": the first two
// underscore-separated fields of the name without its extension.
func QueryIDFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 2 {
		return base
	}
	return parts[0] + "_" + parts[1]
}

// IsDegenerate reports whether a group holds nothing to align against:
// at most one member. Hits of such a query stay raw-annotated.
func (g Group) IsDegenerate() bool {
	return len(g.Members) <= 1
}
