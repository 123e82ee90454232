// Package schema describes the taskwatch command tree in machine-readable form.
//
// Scripts and agents read the JSON form to discover commands and flags; the
// Markdown form is the CLI reference.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLISchema is the whole command tree.
type CLISchema struct {
	Name        string        `json:"name"`
	Version     string        `json:"version"`
	Description string        `json:"description"`
	Commands    []CommandInfo `json:"commands"`
	GlobalFlags []FlagInfo    `json:"global_flags"`
	Recipes     []Recipe      `json:"recipes"`
	Environment []EnvVar      `json:"environment"`
}

// CommandInfo describes one command and its children.
type CommandInfo struct {
	Path        string        `json:"path"`
	Short       string        `json:"short"`
	Usage       string        `json:"usage"`
	Examples    []string      `json:"examples,omitempty"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
}

// FlagInfo describes a flag.
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

// Recipe is a short command sequence for a common job.
type Recipe struct {
	Name  string   `json:"name"`
	Steps []string `json:"steps"`
}

// EnvVar documents an environment override.
type EnvVar struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GetCLISchema walks a root command.
//
// Parameters:
//   - rootCmd: The root Cobra command
//   - version: CLI version string
//
// Returns:
//   - *CLISchema: The generated schema
func GetCLISchema(rootCmd *cobra.Command, version string) *CLISchema {
	return &CLISchema{
		Name:        rootCmd.Name(),
		Version:     version,
		Description: rootCmd.Short,
		Commands:    extractCommands(rootCmd, ""),
		GlobalFlags: extractFlags(rootCmd.PersistentFlags()),
		Recipes:     recipes(rootCmd.Name()),
		Environment: environment(),
	}
}

func extractCommands(cmd *cobra.Command, parentPath string) []CommandInfo {
	var commands []CommandInfo

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
			continue
		}

		path := sub.Name()
		if parentPath != "" {
			path = parentPath + " " + sub.Name()
		}

		info := CommandInfo{
			Path:     path,
			Short:    sub.Short,
			Usage:    sub.UseLine(),
			Examples: extractExamples(sub.Long),
			Flags:    extractFlags(sub.LocalNonPersistentFlags()),
		}
		if sub.HasSubCommands() {
			info.Subcommands = extractCommands(sub, path)
		}
		commands = append(commands, info)
	}
	return commands
}

func extractFlags(flags *pflag.FlagSet) []FlagInfo {
	var out []FlagInfo
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		out = append(out, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
			Description: f.Usage,
		})
	})
	return out
}

// extractExamples returns the indented lines under an "EXAMPLES:" heading
// in a command's long help.
func extractExamples(long string) []string {
	_, section, ok := strings.Cut(long, "EXAMPLES:")
	if !ok {
		return nil
	}

	var examples []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(line, " ") {
			break
		}
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		examples = append(examples, trimmed)
	}
	return examples
}

func recipes(name string) []Recipe {
	return []Recipe{
		{
			Name: "Authenticate",
			Steps: []string{
				name + " auth login --token <token>",
				name + " auth status",
			},
		},
		{
			Name: "Wait for a task in CI",
			Steps: []string{
				name + " watch <task-id> --json --timeout 30m",
			},
		},
		{
			Name: "Follow whichever task a script is running",
			Steps: []string{
				"echo <task-id> > .current-task",
				name + " watch --id-file .current-task",
			},
		},
		{
			Name: "Tune reconnects on a flaky network",
			Steps: []string{
				name + " config set heartbeat-timeout 60s",
				name + " config set max-reconnect-attempts 5",
			},
		},
	}
}

func environment() []EnvVar {
	return []EnvVar{
		{"FUNMAGIC_API_TOKEN", "API token; wins over stored credentials and any session cookie"},
		{"FUNMAGIC_SESSION_TOKEN", "Session cookie; replaces the stored cookie, used only when no token is set"},
		{"FUNMAGIC_API_URL", "API base URL"},
		{"FUNMAGIC_BACKEND_PORT", "Local backend port used with --dev"},
		{"FUNMAGIC_CONFIG_DIR", "Directory for config.yaml and credentials.json"},
		{"FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS", "Stream staleness window in milliseconds"},
		{"FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS", "Reconnect budget per task"},
	}
}

// ToJSON encodes the schema.
func ToJSON(schema *CLISchema, indent bool) (string, error) {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(schema, "", "  ")
	} else {
		data, err = json.Marshal(schema)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}
	return string(data), nil
}

// ToMarkdown renders the schema as a CLI reference.
func ToMarkdown(schema *CLISchema) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s CLI Reference\n\n", schema.Name)
	fmt.Fprintf(&sb, "**Version:** %s\n\n%s\n\n", schema.Version, schema.Description)

	sb.WriteString("## Global Flags\n\n")
	writeFlagTable(&sb, schema.GlobalFlags)

	sb.WriteString("## Commands\n\n")
	for _, cmd := range schema.Commands {
		writeCommandMarkdown(&sb, cmd, 3)
	}

	sb.WriteString("## Environment\n\n")
	for _, env := range schema.Environment {
		fmt.Fprintf(&sb, "- `%s`: %s\n", env.Name, env.Description)
	}
	sb.WriteString("\n## Recipes\n\n")
	for _, r := range schema.Recipes {
		fmt.Fprintf(&sb, "### %s\n\n```bash\n%s\n```\n\n", r.Name, strings.Join(r.Steps, "\n"))
	}
	return sb.String()
}

func writeCommandMarkdown(sb *strings.Builder, cmd CommandInfo, level int) {
	fmt.Fprintf(sb, "%s `%s`\n\n%s\n\n", strings.Repeat("#", level), cmd.Path, cmd.Short)
	fmt.Fprintf(sb, "**Usage:** `%s`\n\n", cmd.Usage)

	if len(cmd.Flags) > 0 {
		sb.WriteString("**Flags:**\n\n")
		writeFlagTable(sb, cmd.Flags)
	}
	if len(cmd.Examples) > 0 {
		fmt.Fprintf(sb, "**Examples:**\n\n```bash\n%s\n```\n\n", strings.Join(cmd.Examples, "\n"))
	}
	for _, sub := range cmd.Subcommands {
		writeCommandMarkdown(sb, sub, level+1)
	}
}

func writeFlagTable(sb *strings.Builder, flags []FlagInfo) {
	sb.WriteString("| Flag | Type | Default | Description |\n")
	sb.WriteString("|------|------|---------|-------------|\n")
	for _, f := range flags {
		name := "--" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", " + name
		}
		fmt.Fprintf(sb, "| `%s` | %s | %s | %s |\n", name, f.Type, f.Default, f.Description)
	}
	sb.WriteString("\n")
}
