package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/infrastructure/persistence"
)

func newStateCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Load or dump store snapshots",
	}
	cmd.AddCommand(newStateLoadCmd(root), newStateDumpCmd(root))
	return cmd
}

func newStateLoadCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace the store contents with a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return withCode(exitUsage, fmt.Errorf("--file is required"))
			}
			data, err := readSnapshotFile(file)
			if err != nil {
				return withCode(exitUsage, err)
			}
			snap, err := decodeSnapshot(data)
			if err != nil {
				return withCode(exitValidation, fmt.Errorf("%s: %w", file, err))
			}

			a, ctx, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.ImportState(ctx, snap); err != nil {
				return withCode(exitStoreWrite, fmt.Errorf("load state: %w", err))
			}
			return writeJSONLine(map[string]any{
				"status":         "loaded",
				"file":           file,
				"legacy_spaces":  len(snap.LegacySpaces),
				"allocations":    len(snap.Allocations),
				"spaces":         len(snap.Spaces),
				"classifications": len(snap.Classifications),
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Snapshot JSON file")
	return cmd
}

func newStateDumpCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the store contents as a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := json.MarshalIndent(a.store.ExportState(), "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if file == "" || file == "-" {
				_, err = stdout.Write(data)
				return err
			}
			if err := os.WriteFile(file, data, 0o644); err != nil {
				return withCode(exitUsage, fmt.Errorf("write %s: %w", file, err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "Output file, - for stdout")
	return cmd
}

func readSnapshotFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func decodeSnapshot(data []byte) (persistence.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var snap persistence.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return persistence.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
