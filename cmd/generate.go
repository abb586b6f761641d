package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/pipeline"
)

var (
	jsonFlag bool

	generateCmd = &cobra.Command{
		Use:   "generate <concept>",
		Short: "Run the pipeline once and print the analogy",
		Long:  longGenerate,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			concept := strings.Join(args, " ")

			progress := pipeline.ObserverFunc(func(event pipeline.Event) {
				if event.State == pipeline.StateRunning {
					log.Info("running stage",
						"stage", event.Stage, "step", fmt.Sprintf("%d/%d", event.Index+1, event.Total),
					)
				}
			})

			runner, err := newRunner(viper.GetViper(), pipeline.WithObserver(progress))
			if err != nil {
				return err
			}

			record, err := runner.Run(cmd.Context(), concept)
			if err != nil {
				return err
			}

			if jsonFlag {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(record)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderRecord(record))
			return nil
		},
	}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Width(10)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Width(80)
)

func renderRecord(record *pipeline.AnalogyRecord) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(record.FinalAnalogy),
		"",
		row("target", record.TargetDomain),
		row("source", record.SourceDomain),
		row("runtime", fmt.Sprintf("%.2fs", record.RuntimeSeconds)),
		"",
		record.Explanation,
	))
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the record as JSON")
}

var longGenerate = `
Run the analogy pipeline once for a concept and print the result.

Examples:
  analogy generate photosynthesis
  analogy generate "supply and demand" --json
`
