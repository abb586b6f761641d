package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/prompts"
)

var stagesCmd = &cobra.Command{
	Use:   "stages [name]",
	Short: "List the configured pipeline stages, or show one of them in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(viper.GetViper())
		if err != nil {
			return err
		}

		if len(args) == 1 {
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderStage(def))
			return nil
		}

		for i, def := range registry.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s\n   %s\n",
				i+1,
				titleStyle.Render(def.Name),
				lipgloss.NewStyle().Faint(true).Render("("+def.Role+")"),
				schemaLine(def),
			)
		}

		return nil
	},
}

func schemaLine(def prompts.Definition) string {
	fields := make([]string, 0, len(def.Schema))

	for _, field := range def.Schema {
		fields = append(fields, fmt.Sprintf("%s:%s", field.Name, field.Type))
	}

	return strings.Join(fields, ", ")
}

func renderStage(def prompts.Definition) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	rows := []string{
		titleStyle.Render(def.Name),
		"",
		row("role", def.Role),
		row("goal", def.Goal),
	}

	if def.Backstory != "" {
		rows = append(rows, row("backstory", def.Backstory))
	}

	rows = append(rows,
		row("schema", schemaLine(def)),
		"",
		strings.TrimSpace(def.Template),
	)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func init() {
	rootCmd.AddCommand(stagesCmd)
}
