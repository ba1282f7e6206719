package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the import documents with the migrated spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			if input == "" {
				input = a.cfg.Spaces.ImportDir
			}
			src, err := a.blobStore(ctx, input)
			if err != nil {
				return err
			}
			in, err := services.ReadInputs(ctx, src)
			if err != nil {
				return withCode(exitValidation, err)
			}
			report, err := services.Verify(ctx, a.store, in)
			if err != nil {
				return withCode(exitStore, fmt.Errorf("verify: %w", err))
			}
			status := "ok"
			if !report.OK() {
				status = "mismatch"
			}
			if err := writeJSONLine(map[string]any{"status": status, "input": input, "report": report}); err != nil {
				return err
			}
			if !report.OK() {
				return withCode(exitValidation, fmt.Errorf("%d missing, %d different spaces", len(report.Missing), len(report.Differences)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "Location of the import documents (default: SPACES_IMPORT_DIR)")
	return cmd
}
