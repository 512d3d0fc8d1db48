package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/jobs"
)

const excludedCompaniesFilter = "excluded_companies"

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search current job openings and print them as JSON",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Bool("include-excluded", false, "keep companies listed under jobs.exclude-companies")
}

func search(cmd *cobra.Command, query string) {
	ctx := context.Background()

	logger, config := setup()

	assistant, err := newAssistant(ctx, config.AI, nil, logger)
	if err != nil {
		logger.Fatal("building the ai assistant", zap.Error(err))
	}

	pipeline := filtering.NewPipeline(&config.Jobs, logger)
	if include, _ := cmd.Flags().GetBool("include-excluded"); include {
		filtering.DisableByName(pipeline.Steps(), excludedCompaniesFilter, "disabled by --include-excluded")
	}

	logger.Info("starting the search", zap.String("query", query))

	board := jobs.NewBoard(assistant, pipeline, logger)
	state, err := board.Search(ctx, query)
	if err != nil {
		logger.Fatal("searching jobs", zap.Error(err))
	}

	logger.Info("search finished", zap.Int("count", len(state.Results)))

	pretty, err := json.MarshalIndent(state.Results, "", "  ")
	if err != nil {
		logger.Fatal("encoding results", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}
