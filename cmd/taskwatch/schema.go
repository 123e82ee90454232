// Package main provides the schema command.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the command reference",
	Long: `Print every command and flag as JSON or Markdown.

EXAMPLES:
  taskwatch schema
  taskwatch schema --format markdown > CLI.md`,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().String("format", "json", "Output format: json or markdown")
}

func runSchema(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	s := schema.GetCLISchema(cmd.Root(), version)

	switch format {
	case "json":
		out, err := schema.ToJSON(s, true)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "markdown", "md":
		fmt.Print(schema.ToMarkdown(s))
	default:
		return fmt.Errorf("unknown format %q (expected json or markdown)", format)
	}
	return nil
}
