package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/services"
)

func newBridgesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bridges",
		Short: "Link legacy resource allocations to the migrated spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := services.NewBridgeInstaller(a.store, a.bus).Install(ctx)
			if err != nil {
				return withCode(exitStoreWrite, fmt.Errorf("install bridges: %w", err))
			}
			return writeJSONLine(map[string]any{
				"status":  "installed",
				"total":   res.Total(),
				"bridges": res,
			})
		},
	}
}
