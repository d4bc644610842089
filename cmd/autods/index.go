package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autods/autods/internal/vectorstore"
)

func newIndexCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the vector index over the function catalog",
	}
	cmd.AddCommand(newIndexBuildCmd(opts))
	return cmd
}

func newIndexBuildCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Rebuild the vector index from the catalog and persist it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			provider, err := opts.newProvider(ctx)
			if err != nil {
				return err
			}

			index := vectorstore.NewFlatL2Index(provider, opts.logger)
			if err := index.BuildFromCatalog(ctx, store, opts.cfg.Embedding.BatchSize); err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			if err := index.Save(opts.cfg.IndexDir); err != nil {
				return fmt.Errorf("persist index: %w", err)
			}

			// Smoke check: the demo query must come back with a hit.
			matches, err := index.Search(ctx, "perform linear regression", 1)
			if err != nil {
				opts.logger.Warn("Smoke search returned no match", "error", err)
			} else {
				opts.logger.Info("Smoke search succeeded", "key", matches[0].Key, "distance", matches[0].Distance)
			}

			fmt.Printf("Indexed %d functions (dimension %d) into %s\n", index.Count(), index.Dimension(), opts.cfg.IndexDir)
			return nil
		},
	}
}
