package prosite

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"github.com/richinex/motifmap/internal/dsa"
)

// Catalog maps accession to compiled motif.
// Iteration is in ascending accession order.
type Catalog struct {
	index *dsa.Trie[*CompiledMotif]
}

// NewCatalog creates a catalog holding the given motifs.
// A later motif replaces an earlier one with the same accession.
func NewCatalog(motifs ...*CompiledMotif) *Catalog {
	c := &Catalog{index: dsa.NewTrie[*CompiledMotif]()}
	for _, m := range motifs {
		c.Add(m)
	}
	return c
}

// Add inserts or replaces a motif.
func (c *Catalog) Add(m *CompiledMotif) {
	c.index.Insert(m.Accession, m)
}

// Len returns the number of motifs.
func (c *Catalog) Len() int {
	return c.index.Len()
}

// Get returns the motif for an accession.
func (c *Catalog) Get(accession string) (*CompiledMotif, bool) {
	return c.index.Get(accession)
}

// Accessions returns all accessions in ascending order.
func (c *Catalog) Accessions() []string {
	return c.index.Keys()
}

// Each calls fn for every motif in accession order.
func (c *Catalog) Each(fn func(m *CompiledMotif)) {
	c.index.Walk(func(_ string, m *CompiledMotif) bool {
		fn(m)
		return true
	})
}

// WithPrefix returns the motifs whose accession starts with prefix.
func (c *Catalog) WithPrefix(prefix string) []*CompiledMotif {
	var motifs []*CompiledMotif
	c.index.WalkPrefix(prefix, func(_ string, m *CompiledMotif) bool {
		motifs = append(motifs, m)
		return true
	})
	return motifs
}

// Name returns the human-readable name of an accession, or "" if unknown.
func (c *Catalog) Name(accession string) string {
	if m, ok := c.index.Get(accession); ok {
		return m.Name
	}
	return ""
}

// Names returns accession → name for every motif.
func (c *Catalog) Names() map[string]string {
	names := make(map[string]string, c.Len())
	c.Each(func(m *CompiledMotif) {
		names[m.Accession] = m.Name
	})
	return names
}

// Fingerprint hashes the accessions and compiled expressions with xxHash.
// Two catalogs with the same fingerprint produce the same matches, so a saved
// project can tell whether it was annotated against the catalog in hand.
func (c *Catalog) Fingerprint() string {
	h := xxhash.New()
	c.Each(func(m *CompiledMotif) {
		_, _ = h.WriteString(m.Accession)
		_, _ = h.WriteString("\t")
		_, _ = h.WriteString(m.Regex.String())
		_, _ = h.WriteString("\n")
	})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h.Sum64())
	return hex.EncodeToString(buf[:])
}

// BuildOptions configures catalog construction.
type BuildOptions struct {
	// ExcludeHighFrequency omits entries carrying /SKIP-FLAG=TRUE.
	ExcludeHighFrequency bool
	// Logger receives one debug line per skipped entry and a summary.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// BuildStats counts what happened to each source entry.
type BuildStats struct {
	Total     int
	Compiled  int
	Empty     int // no pattern
	Excluded  int // high-frequency, dropped on request
	Malformed int // broken ID line, failed validation or regexp compilation
}

// Build compiles entries into a catalog. Entries without a pattern,
// excluded entries and malformed entries are skipped and counted; a catalog
// with zero motifs is a valid result.
func Build(entries []Entry, opts BuildOptions) (*Catalog, BuildStats) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := NewCatalog()
	stats := BuildStats{Total: len(entries)}

	for _, entry := range entries {
		if entry.Malformed {
			stats.Malformed++
			logger.Debug("skipping catalog entry",
				"accession", entry.Accession,
				"error", "malformed ID line")
			continue
		}
		if entry.Pattern == "" {
			stats.Empty++
			continue
		}
		if opts.ExcludeHighFrequency && entry.SkipFlag {
			stats.Excluded++
			continue
		}

		motif, err := CompileMotif(entry)
		if err != nil {
			stats.Malformed++
			logger.Debug("skipping catalog entry",
				"accession", entry.Accession,
				"unsupported_symbol", errors.Is(err, ErrUnsupportedSymbol),
				"error", err)
			continue
		}
		catalog.Add(motif)
		stats.Compiled++
	}

	logger.Info("motif catalog built",
		"entries", stats.Total,
		"compiled", stats.Compiled,
		"empty", stats.Empty,
		"excluded", stats.Excluded,
		"malformed", stats.Malformed)

	return catalog, stats
}
