// Package report formats localization results for people: the per-query
// domain table and a per-record summary.
package report

import (
	"bufio"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/richinex/motifmap/model"
)

// DomainHeader is the first line of a domain table.
const DomainHeader = "Query\tProtein\tProsite_accs\tDomain_name\tSpan"

// unknownName is printed for accessions missing from the name table.
const unknownName = "-"

// WriteDomains writes the tab-separated domain table for one query: one
// line per raw domain of each of its hits, spans in ungapped coordinates,
// and a blank line after each hit.
func WriteDomains(w io.Writer, queryID string, hits []*model.Hit, names map[string]string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", DomainHeader)

	for _, h := range hits {
		if h.QueryID != queryID {
			continue
		}
		domains := h.Domains()
		model.SortSpans(domains)
		for _, d := range domains {
			name, ok := names[d.Accession]
			if !ok || name == "" {
				name = unknownName
			}
			fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d-%d\n",
				queryID, h.SubjectLabel(), d.Accession, name, d.Start, d.End)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteSummary prints one aligned row per record with its annotation state
// and counts, hits grouped under their query in registry order.
func WriteSummary(w io.Writer, registry *model.QueryRegistry, hits []*model.Hit, queries []*model.QuerySequence) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY\tRECORD\tSTATE\tDOMAINS\tALIGNED\tSEGMENTS")

	queryByID := make(map[string]*model.QuerySequence, len(queries))
	for _, q := range queries {
		queryByID[q.ID] = q
	}

	for _, qid := range registry.IDs() {
		if q, ok := queryByID[qid]; ok {
			writeRow(tw, qid, "(query)", &q.Annotations)
		}
		for _, h := range hits {
			if h.QueryID == qid {
				writeRow(tw, qid, h.SubjectLabel(), &h.Annotations)
			}
		}
	}
	return tw.Flush()
}

func writeRow(w io.Writer, queryID, label string, a *model.Annotations) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
		queryID, label, a.State(), len(a.Domains()), len(a.AlignedDomains()), len(a.Segments()))
}
