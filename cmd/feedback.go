package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/analogy/pkg/feedback"
)

var (
	listArchived bool

	feedbackCmd = &cobra.Command{
		Use:   "feedback",
		Short: "Inspect and archive stored feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored feedback entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := newStore(viper.GetViper()).Count(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Print every stored feedback entry as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeEntries(cmd.Context(), cmd.OutOrStdout(), newStore(viper.GetViper()))
		},
	}

	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Upload the feedback file to the configured bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()

			archive, err := newArchive(v)
			if err != nil {
				return err
			}

			if listArchived {
				keys, err := archive.Archived(cmd.Context())
				if err != nil {
					return err
				}

				for _, key := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}

				return nil
			}

			key, err := archive.Upload(cmd.Context(), newStore(v).Path())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
)

func writeEntries(ctx context.Context, w io.Writer, store *feedback.Store) error {
	entries, err := store.Entries(ctx)
	if err != nil {
		return err
	}

	if entries == nil {
		entries = []feedback.Entry{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(entries)
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.AddCommand(countCmd)
	feedbackCmd.AddCommand(listCmd)
	feedbackCmd.AddCommand(archiveCmd)

	archiveCmd.Flags().BoolVar(&listArchived, "list", false, "List earlier uploads instead of uploading")
}
