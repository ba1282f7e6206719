package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the legacy space graph to the four JSON documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), root, output)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output location for the JSON documents (default: SPACES_EXPORT_DIR)")
	return cmd
}

func runExport(ctx context.Context, root *rootOptions, output string) error {
	a, ctx, err := openApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if output == "" {
		output = a.cfg.Spaces.ExportDir
	}
	sink, err := a.blobStore(ctx, output)
	if err != nil {
		return err
	}

	stopMetrics, err := a.startMetrics(ctx)
	if err != nil {
		return err
	}
	defer stopMetrics()

	res, err := services.NewExporter(a.store, sink, services.ExporterOptions{
		ProgressEvery: a.cfg.Spaces.ProgressEvery,
		Publisher:     a.bus,
	}).Export(ctx)
	if err != nil {
		return withCode(exitStore, fmt.Errorf("export: %w", err))
	}
	return writeJSONLine(map[string]any{
		"status":    "exported",
		"output":    output,
		"documents": res,
	})
}
