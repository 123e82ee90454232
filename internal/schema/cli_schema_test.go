package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testRoot() *cobra.Command {
	root := &cobra.Command{Use: "tw", Short: "Follow tasks"}
	root.PersistentFlags().Bool("json", false, "Output results as JSON")

	watch := &cobra.Command{
		Use:   "watch [task-id]",
		Short: "Stream a task",
		Long: `Stream a task.

EXAMPLES:
  tw watch abc
  # comment lines are skipped
  tw watch --id-file f

NOTES:
  not an example`,
		Run: func(*cobra.Command, []string) {},
	}
	watch.Flags().StringP("id-file", "f", "", "Task id file")
	watch.Flags().String("secret", "", "")
	_ = watch.Flags().MarkHidden("secret")

	cfg := &cobra.Command{Use: "config", Short: "Settings"}
	cfg.AddCommand(&cobra.Command{Use: "show", Short: "Show settings", Run: func(*cobra.Command, []string) {}})

	root.AddCommand(watch, cfg)
	return root
}

func TestGetCLISchema(t *testing.T) {
	s := GetCLISchema(testRoot(), "1.2.3")

	if s.Name != "tw" || s.Version != "1.2.3" || s.Description != "Follow tasks" {
		t.Fatalf("unexpected header: %+v", s)
	}
	if len(s.GlobalFlags) != 1 || s.GlobalFlags[0].Name != "json" {
		t.Fatalf("global flags = %+v", s.GlobalFlags)
	}
	if len(s.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(s.Commands))
	}

	var watch, cfg CommandInfo
	for _, c := range s.Commands {
		switch c.Path {
		case "watch":
			watch = c
		case "config":
			cfg = c
		}
	}

	if len(watch.Flags) != 1 || watch.Flags[0].Shorthand != "f" {
		t.Errorf("watch flags = %+v (hidden flags must be skipped)", watch.Flags)
	}
	wantExamples := []string{"tw watch abc", "tw watch --id-file f"}
	if strings.Join(watch.Examples, "|") != strings.Join(wantExamples, "|") {
		t.Errorf("examples = %q, want %q", watch.Examples, wantExamples)
	}
	if len(cfg.Subcommands) != 1 || cfg.Subcommands[0].Path != "config show" {
		t.Errorf("config subcommands = %+v", cfg.Subcommands)
	}
}

func TestSchemaRendering(t *testing.T) {
	s := GetCLISchema(testRoot(), "dev")

	out, err := ToJSON(s, false)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", err)
	}

	md := ToMarkdown(s)
	for _, want := range []string{"# tw CLI Reference", "### `watch`", "#### `config show`", "`-f, --id-file`", "FUNMAGIC_API_TOKEN"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}
