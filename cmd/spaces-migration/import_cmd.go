package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/logging"
)

type importOptions struct {
	inputDir    string
	outputDir   string
	apply       bool
	occupations bool
	batchSize   int
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import spaces, classifications and occupations from the four JSON documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("occupations") {
				return runImport(cmd.Context(), root, opts, &opts.occupations)
			}
			return runImport(cmd.Context(), root, opts, nil)
		},
	}

	cmd.Flags().StringVar(&opts.inputDir, "input", "", "Input location holding the JSON documents (default: SPACES_IMPORT_DIR)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "", "Output location for the manifest (default: input)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to the store (default is dry-run)")
	cmd.Flags().BoolVar(&opts.occupations, "occupations", false, "Import occupations (default: SPACES_IMPORT_OCCUPATIONS)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Descriptors per write transaction (default: SPACES_BATCH_SIZE)")
	return cmd
}

type importSummary struct {
	Status          string                 `json:"status"`
	RunID           string                 `json:"run_id"`
	Apply           bool                   `json:"apply"`
	Input           string                 `json:"input"`
	Storage         string                 `json:"storage"`
	Manifest        string                 `json:"manifest,omitempty"`
	ManifestVersion *int                   `json:"manifest_version,omitempty"`
	Graph           *services.GraphReport  `json:"graph,omitempty"`
	Pairs           *services.PairReport   `json:"event_space_occupations,omitempty"`
	Report          *services.ImportReport `json:"report,omitempty"`
	Counts          map[string]int         `json:"counts"`
}

func runImport(ctx context.Context, root *rootOptions, opts importOptions, occupations *bool) error {
	if opts.batchSize < 0 {
		return withCode(exitUsage, fmt.Errorf("--batch-size must not be negative"))
	}
	a, ctx, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if strings.TrimSpace(opts.inputDir) == "" {
		opts.inputDir = a.cfg.Spaces.ImportDir
	}
	if opts.outputDir == "" {
		opts.outputDir = opts.inputDir
	}
	if opts.batchSize == 0 {
		opts.batchSize = a.cfg.Spaces.BatchSize
	}
	importOccupations := a.cfg.Spaces.ImportOccupations
	if occupations != nil {
		importOccupations = *occupations
	}

	startedAt := time.Now().UTC()
	runID := uuid.New()
	a.log = a.log.WithField("run_id", runID.String())
	ctx = logging.WithLogger(ctx, a.log)

	src, err := a.blobStore(ctx, opts.inputDir)
	if err != nil {
		return err
	}
	in, err := services.ReadInputs(ctx, src)
	if err != nil {
		return withCode(exitValidation, err)
	}
	specs, err := a.metadataSpecs()
	if err != nil {
		return err
	}

	summary := importSummary{
		RunID:   runID.String(),
		Apply:   opts.apply,
		Input:   opts.inputDir,
		Storage: a.store.Driver(),
		Counts: map[string]int{
			"spaces":                  len(in.Spaces),
			"occupations":             len(in.Occupations),
			"event_space_occupations": len(in.EventSpaceOccupations),
			"classification_roots":    len(in.Classifications),
		},
	}
	importer := services.NewImporter(a.store, services.ImporterOptions{
		BatchSize:         opts.batchSize,
		ImportOccupations: importOccupations,
		Specs:             specs,
		Publisher:         a.bus,
	})

	if !opts.apply {
		graph, pairs := importer.Plan(in)
		summary.Status = "dry_run"
		summary.Graph = &graph
		summary.Pairs = &pairs
		if err := writeJSONLine(summary); err != nil {
			return err
		}
		if !graph.OK() {
			return withCode(exitValidation, fmt.Errorf("space graph has %d cycle(s): %s", len(graph.Cycles), strings.Join(graph.Cycles, ", ")))
		}
		return nil
	}

	stopMetrics, err := a.startMetrics(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	recorder := newRunRecorder(a.bus, runID, startedAt)
	report, runErr := importer.Run(ctx, in)
	manifest := recorder.finish()
	manifest.Storage = a.store.Driver()
	manifest.Input.Location = opts.inputDir
	manifest.Input.Driver = src.Driver()
	manifest.Input.Files = append([]string{}, services.Documents...)
	manifest.Summary["batches"] = report.Batches.Batches
	manifest.Summary["committed_batches"] = report.Batches.Committed
	manifest.Summary["informations"] = report.Batches.Informations
	manifest.Summary["classifications_skipped"] = report.Classifications.Skipped
	manifest.Summary["event_space_occupations_resolvable"] = report.EventSpaceOccupations.Resolvable
	if runErr != nil {
		manifest.Summary["error"] = runErr.Error()
	}

	sink, err := a.blobStore(ctx, opts.outputDir)
	if err != nil {
		return err
	}
	name, err := writeManifest(ctx, sink, manifest)
	if err != nil {
		return withCode(exitStore, fmt.Errorf("write manifest: %w", err))
	}

	if runErr != nil {
		return withCode(migrationExitCode(runErr), runErr)
	}

	summary.Status = "applied"
	summary.Report = &report
	summary.Manifest = name
	version := manifest.Version
	summary.ManifestVersion = &version
	if report.Partial() {
		summary.Status = "partial"
	}
	if err := writeJSONLine(summary); err != nil {
		return err
	}
	if report.Partial() {
		return withCode(exitPartial, fmt.Errorf("%d of %d batches rolled back", len(report.Batches.Failed), report.Batches.Batches))
	}
	return nil
}
