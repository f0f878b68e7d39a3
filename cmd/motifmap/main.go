// Package main provides the motifmap CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/richinex/motifmap/cli"
	"github.com/richinex/motifmap/config"
	"github.com/richinex/motifmap/storage"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbPath   string
	logLevel string
	exclude  bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "motifmap",
		Short: "Locate PROSITE motifs in BLAST hits and their alignments",
		Long: `A CLI tool for locating PROSITE motifs in BLAST hit sequences.

Each hit is searched twice:
- ungapped: every match of every motif, for the domain tables
- aligned: matches in the gapped alignment row, longer than --min-aligned,
  plus the non-gap segments of the row

Results are saved as projects that can be reopened without re-running the search.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for projects (default $MOTIFMAP_DB or .motifmap/motifmap.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $MOTIFMAP_LOG_LEVEL or info)")
	rootCmd.PersistentFlags().BoolVar(&exclude, "exclude", false, "Drop high-frequency motifs (/SKIP-FLAG=TRUE)")

	// Add commands
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(projectsCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(peptideCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options merges environment settings with the global flags.
func options(cmd *cobra.Command) (cli.Options, error) {
	settings, err := config.New()
	if err != nil {
		return cli.Options{}, err
	}
	if dbPath != "" {
		settings.Storage.DBPath = dbPath
	}
	if logLevel != "" {
		level, err := config.ParseLogLevel(logLevel)
		if err != nil {
			return cli.Options{}, err
		}
		settings.LogLevel = level
	}
	if cmd.Flags().Changed("exclude") {
		settings.Domains.ExcludeHighFrequency = exclude
	}

	opts := cli.DefaultOptions()
	opts.Settings = settings
	opts.Logger = cli.NewLogger(os.Stderr, settings.LogLevel)
	return opts, nil
}

// withStore opens the project database for the duration of fn.
func withStore(opts cli.Options, fn func(store storage.ProjectStorage) error) error {
	store, err := storage.OpenSqlite(opts.Settings.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func analyzeCmd() *cobra.Command {
	var in cli.AnalyzeInput
	var minAligned int
	var evalue, coverage, identity float64

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Locate motifs in a BLAST hit table and save the result as a project",
		Long: `Run the full pipeline:
load catalog -> parse originals -> parse hits -> filter -> ungapped search
-> assign alignments -> aligned search -> reports -> save project.

Alignment files are read from --alignments, one per query, named
<Qn>_<NAME>_aligned.fa. With --queries and --inputs, the aligner input for
each query is written before the search.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-aligned") {
				if minAligned < 0 {
					return fmt.Errorf("--min-aligned must not be negative")
				}
				opts.Settings.Domains.MinAlignedLength = minAligned
			}
			if cmd.Flags().Changed("evalue") {
				opts.Settings.Search.EValue = evalue
			}
			if cmd.Flags().Changed("coverage") {
				opts.Settings.Search.Coverage = coverage
			}
			if cmd.Flags().Changed("identity") {
				opts.Settings.Search.Identity = identity
			}

			return withStore(opts, func(store storage.ProjectStorage) error {
				_, err := cli.Analyze(context.Background(), in, store, opts)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&in.BlastPath, "blast", "", "Tabular BLAST hit table (required)")
	cmd.Flags().StringVar(&in.CatalogPath, "catalog", "", "PROSITE prosite.dat file (required)")
	cmd.Flags().StringVar(&in.OriginalsPath, "originals", "", "FASTA of full-length subject sequences")
	cmd.Flags().StringVar(&in.QueriesPath, "queries", "", "FASTA of query sequences")
	cmd.Flags().StringVar(&in.InputsDir, "inputs", "", "Directory for per-query aligner inputs")
	cmd.Flags().StringVar(&in.AlignmentsDir, "alignments", "", "Directory of aligner output files")
	cmd.Flags().StringVar(&in.ReportsDir, "reports", "", "Directory for per-query domain tables")
	cmd.Flags().StringVar(&in.Name, "name", "", "Project name (default: hit table file name)")
	cmd.Flags().IntVar(&minAligned, "min-aligned", config.DefaultMinAlignedLength, "Aligned spans must be longer than this")
	cmd.Flags().Float64Var(&evalue, "evalue", config.DefaultEValue, "Maximum e-value")
	cmd.Flags().Float64Var(&coverage, "coverage", config.DefaultCoverage, "Minimum query coverage (%)")
	cmd.Flags().Float64Var(&identity, "identity", config.DefaultIdentity, "Identity (%) must exceed this")
	_ = cmd.MarkFlagRequired("blast")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func openCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "open [project-id]",
		Short: "Reopen a saved project and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return withStore(opts, func(store storage.ProjectStorage) error {
				_, err := cli.Open(context.Background(), args[0], catalogPath, store, opts)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Warn if this catalog differs from the project's")

	return cmd
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List saved projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return withStore(opts, func(store storage.ProjectStorage) error {
				return cli.ListProjects(context.Background(), store, opts)
			})
		},
	}
}

func catalogCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "catalog [prefix]",
		Short: "List compiled motifs, optionally by accession prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return cli.Catalog(catalogPath, prefix, opts)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "PROSITE prosite.dat file (required)")
	_ = cmd.MarkFlagRequired("catalog")

	return cmd
}

func peptideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peptide [project-id] [peptide]",
		Short: "Find exact peptide occurrences in a saved project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options(cmd)
			if err != nil {
				return err
			}
			return withStore(opts, func(store storage.ProjectStorage) error {
				_, err := cli.Peptide(context.Background(), args[0], args[1], store, opts)
				return err
			})
		},
	}
}
