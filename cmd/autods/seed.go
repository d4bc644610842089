package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autods/autods/internal/catalog"
)

func newCatalogCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the function catalog",
	}
	cmd.AddCommand(newCatalogSeedCmd(opts), newCatalogListCmd(opts))
	return cmd
}

func newCatalogSeedCmd(opts *cliOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "seed <descriptors.json>",
		Short: "Load function descriptors produced by the catalog scrapers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, err := catalog.LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			if replace {
				if err := store.ReplaceAll(descriptors); err != nil {
					return fmt.Errorf("replace catalog: %w", err)
				}
			} else {
				for _, descriptor := range descriptors {
					if err := store.Put(descriptor); err != nil {
						return fmt.Errorf("insert %q: %w", descriptor.DisplayKey, err)
					}
				}
			}

			if err := catalog.EnsureLinearRegression(store, opts.logger); err != nil {
				return err
			}

			count, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Printf("Catalog now holds %d functions\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "clear the catalog before inserting")
	return cmd
}

func newCatalogListCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all catalog functions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			descriptors, err := store.List()
			if err != nil {
				return err
			}
			for _, descriptor := range descriptors {
				fmt.Printf("[%s] %s\n", descriptor.Language, descriptor.DisplayKey)
				if descriptor.Signature != "" {
					fmt.Printf("        %s\n", descriptor.Signature)
				}
			}
			fmt.Printf("%d functions\n", len(descriptors))
			return nil
		},
	}
}
