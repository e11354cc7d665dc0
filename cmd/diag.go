package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/RobertIonutF/rmusico/search"
	"github.com/RobertIonutF/rmusico/track"
)

const diagTimeout = 3 * time.Minute

func init() {
	rootCmd.AddCommand(resolveCmd, searchCmd)
	searchCmd.Flags().IntP("limit", "n", 5, "Number of results to list")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url-or-query>",
	Short: "Resolve a URL or query to a playable stream without joining voice",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		_, adapter := newPipeline(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), diagTimeout)
		defer cancel()

		rec, err := adapter.Resolve(ctx, strings.Join(args, " "))
		var desc *search.DescriptiveError
		if errors.As(err, &desc) {
			printRecord(cmd, desc.Record)
			return desc.Err
		}
		if err != nil {
			return err
		}
		printRecord(cmd, rec)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "List search results for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		_, adapter := newPipeline(cfg)

		ctx, cancel := context.WithTimeout(cmd.Context(), diagTimeout)
		defer cancel()

		limit := lo.Must(cmd.Flags().GetInt("limit"))
		recs, err := adapter.List(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		for i, rec := range recs {
			cmd.Printf("%s %s\n", color.HiBlackString("%2d.", i+1), rec)
			cmd.Printf("    %s\n", color.CyanString(rec.PageURL))
		}
		return nil
	},
}

func printRecord(cmd *cobra.Command, rec track.Record) {
	label := color.New(color.Bold).SprintFunc()
	cmd.Printf("%s %s\n", label("Title:   "), rec.Title)
	cmd.Printf("%s %s\n", label("Uploader:"), rec.Uploader)
	cmd.Printf("%s %s\n", label("Duration:"), track.FormatDuration(rec.Duration))
	cmd.Printf("%s %s\n", label("Page:    "), rec.PageURL)
	cmd.Printf("%s %s\n", label("Source:  "), rec.Strategy)
	if rec.IsPlayable() {
		cmd.Printf("%s %s\n", label("Stream:  "), color.GreenString(truncateURL(rec.StreamURL)))
		return
	}
	cmd.Printf("%s %s\n", label("Stream:  "), color.RedString(fmt.Sprintf("none (%s)", rec.Description)))
}

func truncateURL(u string) string {
	if len(u) > 120 {
		return u[:117] + "..."
	}
	return u
}
