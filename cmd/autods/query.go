package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newQueryCmd(opts *cliOptions) *cobra.Command {
	var argsJSON string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query <task description>",
		Short: "Resolve and execute a single task description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provided := map[string]any{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &provided); err != nil {
					return fmt.Errorf("invalid --args JSON: %w", err)
				}
			}

			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := opts.newAgent(cmd.Context(), store)
			if err != nil {
				return err
			}

			response := pipeline.Handle(cmd.Context(), args[0], provided)

			if jsonOutput {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(response)
			}

			if !response.Success {
				fmt.Printf("Error: %s\n", response.Error)
				if response.Diagnostic != "" {
					fmt.Printf("Diagnostic:\n%s\n", response.Diagnostic)
				}
				return nil
			}
			fmt.Printf("Language: %s\n\nCode:\n%s\n\nResult:\n%s\n", response.Language, response.CodeSnippet, response.Result)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsJSON, "args", "", "function arguments as a JSON object")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output the full response as JSON")
	return cmd
}
