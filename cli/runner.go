// Command execution for CLI commands.
//
// Information Hiding:
// - Pipeline wiring (catalog, ingestion, localization, reports) hidden
// - File layout of inputs and outputs hidden
// - Output formatting hidden

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/richinex/motifmap/alignment"
	"github.com/richinex/motifmap/blast"
	"github.com/richinex/motifmap/config"
	"github.com/richinex/motifmap/localize"
	"github.com/richinex/motifmap/model"
	"github.com/richinex/motifmap/motif"
	"github.com/richinex/motifmap/prosite"
	"github.com/richinex/motifmap/report"
	"github.com/richinex/motifmap/storage"
)

// Options holds CLI execution options.
type Options struct {
	Settings config.Settings
	Logger   *slog.Logger
	Stdout   io.Writer
	Stderr   io.Writer
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{
		Settings: config.Defaults(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}

// NewLogger creates the text logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// AnalyzeInput names the files an analysis reads and writes.
type AnalyzeInput struct {
	BlastPath     string // tabular hit table, required
	CatalogPath   string // prosite.dat, required
	OriginalsPath string // full-length subject sequences (FASTA)
	QueriesPath   string // query sequences (FASTA), ids normalized to Q<n>_<NAME>
	InputsDir     string // where per-query aligner inputs are written
	AlignmentsDir string // aligner output, one FASTA per query
	ReportsDir    string // where per-query domain tables are written
	Name          string // project name, defaults to the hit table's base name
}

// LoadCatalog parses and compiles a prosite.dat file.
func LoadCatalog(path string, excludeHighFrequency bool, logger *slog.Logger) (*prosite.Catalog, prosite.BuildStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, prosite.BuildStats{}, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	entries, err := prosite.ParseDat(f)
	if err != nil {
		return nil, prosite.BuildStats{}, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	catalog, stats := prosite.Build(entries, prosite.BuildOptions{
		ExcludeHighFrequency: excludeHighFrequency,
		Logger:               logger,
	})
	return catalog, stats, nil
}

func readFasta(path string) ([]alignment.FastaRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := alignment.ParseFasta(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// Analyze runs the whole pipeline and saves the result as a new project:
// load catalog, parse originals and hits, filter, localize in ungapped
// coordinates, assign alignments, localize in aligned coordinates, write
// reports, save.
func Analyze(ctx context.Context, in AnalyzeInput, store storage.ProjectStorage, opts Options) (*storage.Project, error) {
	logger := opts.logger()
	settings := opts.Settings

	if in.BlastPath == "" || in.CatalogPath == "" {
		return nil, errors.New("both a hit table and a catalog are required")
	}

	catalog, _, err := LoadCatalog(in.CatalogPath, settings.Domains.ExcludeHighFrequency, logger)
	if err != nil {
		return nil, err
	}

	var originals map[string]string
	if in.OriginalsPath != "" {
		records, err := readFasta(in.OriginalsPath)
		if err != nil {
			return nil, err
		}
		originals = alignment.SequenceMap(records)
		logger.Info("loaded original sequences", "count", len(originals))
	}

	registry := model.NewQueryRegistry()
	hits, err := readHits(in.BlastPath, originals)
	if err != nil {
		return nil, err
	}
	parsed := len(hits)
	hits = blast.Filter(hits, blast.Thresholds{
		MaxEValue:   settings.Search.EValue,
		MinCoverage: settings.Search.Coverage,
		MinIdentity: settings.Search.Identity,
	})
	// Only queries with surviving hits are registered.
	for _, h := range hits {
		registry.Add(h.QueryID)
	}
	logger.Info("filtered hits", "parsed", parsed, "kept", len(hits), "queries", registry.Len())

	if in.QueriesPath != "" && in.InputsDir != "" {
		if err := writeAlignmentInputs(in.QueriesPath, in.InputsDir, registry, hits, logger); err != nil {
			return nil, err
		}
	}

	service := localize.New(localize.Options{
		MinAlignedLength: settings.Domains.MinAlignedLength,
		Logger:           logger,
	})
	raw := service.LocalizeRaw(catalog, localize.Records(hits, nil))

	var queries []*model.QuerySequence
	if in.AlignmentsDir != "" {
		queries, err = assignAlignments(in.AlignmentsDir, registry, hits, logger)
		if err != nil {
			return nil, err
		}
		raw.RawSpans += service.LocalizeRaw(catalog, localize.Records(nil, queries)).RawSpans
	}
	aligned := service.LocalizeAligned(catalog, localize.Records(hits, queries))
	service.Summarize(raw, aligned)

	if in.ReportsDir != "" {
		if err := writeReports(in.ReportsDir, registry, hits, catalog.Names()); err != nil {
			return nil, err
		}
	}

	name := in.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in.BlastPath), filepath.Ext(in.BlastPath))
	}
	project := storage.NewProject(name)
	project.CatalogFingerprint = catalog.Fingerprint()
	project.MinAlignedLength = settings.Domains.MinAlignedLength
	project.ExcludeHighFrequency = settings.Domains.ExcludeHighFrequency
	project.Queries = registry.IDs()
	project.Hits = hits
	project.QuerySeqs = queries
	project.Names = usedNames(catalog, project.Records())

	if err := store.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	out := opts.stdout()
	fmt.Fprintf(out, "Project %s (%s)\n", project.ID, project.Name)
	fmt.Fprintf(out, "%d queries, %d hits, %d aligned query rows\n",
		registry.Len(), len(hits), len(queries))
	return project, nil
}

func readHits(path string, originals map[string]string) ([]*model.Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hit table: %w", err)
	}
	defer f.Close()

	// Registration happens after filtering, so parse without a registry.
	hits, err := blast.ParseTabular(f, nil, originals)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return hits, nil
}

// writeAlignmentInputs writes <query>.fa per registered query for the
// external aligner.
func writeAlignmentInputs(queriesPath, dir string, registry *model.QueryRegistry, hits []*model.Hit, logger *slog.Logger) error {
	records, err := readFasta(queriesPath)
	if err != nil {
		return err
	}
	sequences := alignment.SequenceMap(blast.NormalizeQueries(records))

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create inputs directory: %w", err)
	}

	for _, qid := range registry.IDs() {
		seq, ok := sequences[qid]
		if !ok {
			logger.Warn("query sequence not found", "query", qid)
		}
		if err := writeFile(filepath.Join(dir, qid+".fa"), func(w io.Writer) error {
			return blast.WriteAlignmentInput(w, qid, hits, seq)
		}); err != nil {
			return err
		}
	}
	logger.Info("wrote aligner inputs", "dir", dir, "queries", registry.Len())
	return nil
}

// alignmentExtensions are the file suffixes read from an alignments directory.
var alignmentExtensions = map[string]bool{".fa": true, ".fasta": true, ".faa": true, ".aln": true}

// assignAlignments reads every aligner output in dir and attaches the rows
// to hits. Degenerate groups and groups of unknown queries are skipped.
func assignAlignments(dir string, registry *model.QueryRegistry, hits []*model.Hit, logger *slog.Logger) ([]*model.QuerySequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read alignments directory: %w", err)
	}

	var queries []*model.QuerySequence
	for _, entry := range entries {
		if entry.IsDir() || !alignmentExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		queryID := alignment.QueryIDFromFilename(entry.Name())
		if !registry.Contains(queryID) {
			logger.Warn("alignment for unknown query", "file", entry.Name(), "query", queryID)
			continue
		}

		members, err := readFasta(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		group := alignment.Group{QueryID: queryID, Members: members}
		if group.IsDegenerate() {
			logger.Info("skipping degenerate alignment", "file", entry.Name(), "members", len(members))
			continue
		}

		query, assigned := alignment.AssignGroup(group, hits)
		if query != nil {
			queries = append(queries, query)
		}
		logger.Debug("assigned alignment", "query", queryID, "rows", assigned)
	}
	return queries, nil
}

func writeReports(dir string, registry *model.QueryRegistry, hits []*model.Hit, names map[string]string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	for _, qid := range registry.IDs() {
		path := filepath.Join(dir, qid+"_domains.tsv")
		if err := writeFile(path, func(w io.Writer) error {
			return report.WriteDomains(w, qid, hits, names)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// usedNames keeps the names of accessions that annotate at least one record.
func usedNames(catalog *prosite.Catalog, records []model.Record) map[string]string {
	names := make(map[string]string)
	for _, r := range records {
		a := r.Annotated()
		for _, spans := range [][]model.DomainSpan{a.Domains(), a.AlignedDomains()} {
			for _, d := range spans {
				names[d.Accession] = catalog.Name(d.Accession)
			}
		}
	}
	return names
}

// Open resumes a saved project and prints its summary. When catalogPath is
// set, it warns if that catalog differs from the one the project used.
func Open(ctx context.Context, id, catalogPath string, store storage.ProjectStorage, opts Options) (*storage.Project, error) {
	project, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}

	if catalogPath != "" {
		catalog, _, err := LoadCatalog(catalogPath, project.ExcludeHighFrequency, opts.logger())
		if err != nil {
			return nil, err
		}
		if fp := catalog.Fingerprint(); fp != project.CatalogFingerprint {
			fmt.Fprintf(opts.stderr(), "Warning: catalog %s (%s) differs from the one used by this project (%s)\n",
				catalogPath, fp, project.CatalogFingerprint)
		}
	}

	out := opts.stdout()
	fmt.Fprintf(out, "Project %s (%s), created %s\n",
		project.ID, project.Name, project.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "min aligned length %d, high-frequency motifs excluded: %v\n\n",
		project.MinAlignedLength, project.ExcludeHighFrequency)
	if err := report.WriteSummary(out, project.Registry(), project.Hits, project.QuerySeqs); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	return project, nil
}

// ListProjects prints saved projects, newest first.
func ListProjects(ctx context.Context, store storage.ProjectStorage, opts Options) error {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	out := opts.stdout()
	if len(projects) == 0 {
		fmt.Fprintln(out, "No saved projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Fprintf(out, "%s  %s  %s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.Name)
	}
	return nil
}

// Catalog prints the compiled motifs whose accession starts with prefix.
func Catalog(catalogPath, prefix string, opts Options) error {
	catalog, stats, err := LoadCatalog(catalogPath, opts.Settings.Domains.ExcludeHighFrequency, opts.logger())
	if err != nil {
		return err
	}

	out := opts.stdout()
	motifs := catalog.WithPrefix(prefix)
	for _, m := range motifs {
		fmt.Fprintf(out, "%s\t%s\t%s\n", m.Accession, m.Name, m.Regex.String())
	}
	fmt.Fprintf(out, "\n%d of %d motifs shown (%d entries: %d empty, %d excluded, %d malformed)\n",
		len(motifs), catalog.Len(), stats.Total, stats.Empty, stats.Excluded, stats.Malformed)
	return nil
}

// Peptide prints every exact occurrence of peptide in a saved project's
// ungapped sequences.
func Peptide(ctx context.Context, id, peptide string, store storage.ProjectStorage, opts Options) ([]motif.PeptideHit, error) {
	project, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}

	index := motif.NewPeptideIndex(project.Records())
	hits, err := index.Lookup(peptide)
	if err != nil {
		return nil, err
	}

	out := opts.stdout()
	for _, h := range hits {
		fmt.Fprintf(out, "%s\t%d-%d\n", h.RecordID, h.Start, h.End)
	}
	fmt.Fprintf(out, "%d occurrences of %s in %d records\n", len(hits), strings.ToUpper(peptide), len(project.Records()))
	return hits, nil
}
