package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell: describe a task, get a function resolved and executed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openCatalog()
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := opts.newAgent(cmd.Context(), store)
			if err != nil {
				return err
			}

			printHeader()
			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("AutoDS> ")
				if !scanner.Scan() {
					break
				}
				query := strings.TrimSpace(scanner.Text())

				switch strings.ToLower(query) {
				case "exit", "quit":
					fmt.Println("Thank you for using AutoDS!")
					return nil
				case "help":
					printHelp()
					continue
				case "clear":
					printHeader()
					continue
				case "":
					continue
				}

				fmt.Println("Enter function arguments as JSON (or press Enter for none):")
				fmt.Print("Args> ")
				if !scanner.Scan() {
					break
				}
				argsLine := strings.TrimSpace(scanner.Text())

				args := map[string]any{}
				if argsLine != "" {
					if err := json.Unmarshal([]byte(argsLine), &args); err != nil {
						fmt.Println("Invalid JSON format. Using empty arguments.")
						args = map[string]any{}
					}
				}

				response := pipeline.Handle(cmd.Context(), query, args)

				if response.Success {
					fmt.Println("\n✓ Function executed successfully!")
					fmt.Printf("\nLanguage: %s\n", response.Language)
					fmt.Printf("\nCode:\n%s\n", response.CodeSnippet)
					fmt.Printf("\nResult:\n%s\n\n", response.Result)
					continue
				}

				fmt.Println("\n✗ Error executing function:")
				fmt.Println(response.Error)
				if response.Diagnostic != "" {
					fmt.Printf("\nDiagnostic:\n%s\n", response.Diagnostic)
				}
				fmt.Println("\nSuggestions:")
				fmt.Println("- Check if the arguments match the function requirements")
				fmt.Println("- Try a more specific query")
				fmt.Println("- Verify the data format is correct")
				fmt.Println()
			}
			return scanner.Err()
		},
	}
}

func printHeader() {
	fmt.Println("Welcome to AutoDS!")
	fmt.Println()
	fmt.Println("Tell me what task you'd like to perform, and I'll find")
	fmt.Println("and run the right function for you.")
	fmt.Println()
	fmt.Println("Type 'exit' to quit, 'help' for more information.")
	fmt.Println()
}

func printHelp() {
	fmt.Println("\n=== AutoDS Help ===")
	fmt.Println("\nExample queries:")
	fmt.Println("  * Perform linear regression")
	fmt.Println("  * Calculate correlation between variables")
	fmt.Println("  * Compute the mean of my values")
	fmt.Println("\nArgument format (JSON object):")
	fmt.Println(`  {"data": [[1,2], [2,3], [3,4]]}`)
	fmt.Println(`  {"formula": "y ~ x", "data": "mtcars"}`)
	fmt.Println("\nCommands: help, clear, exit")
	fmt.Println()
}
