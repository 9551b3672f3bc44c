package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"jobscout/internal/agent"
	"jobscout/internal/scraper"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchCmd = &cobra.Command{
	Use:   "search <keywords>",
	Short: "Search all enabled job boards and print the merged results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSearch(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("location", "l", "", "location filter, e.g. \"New York\"")
	searchCmd.Flags().Bool("analyze", true, "run LLM analysis on the results")
	searchCmd.Flags().Bool("save", true, "persist results to the database")
	searchCmd.Flags().StringP("source", "s", "", "restrict the search to a single platform, e.g. indeed")
	searchCmd.Flags().IntP("limit", "n", 0, "results per platform page")
	searchCmd.Flags().StringP("output-file", "o", "", "write the result JSON to a file")
	searchCmd.Flags().String("page", "", "result page to request")
	searchCmd.Flags().String("date-posted", "", "posting age filter, e.g. week, month")
	searchCmd.Flags().String("job-type", "", "job type filter, e.g. full-time")
	searchCmd.Flags().Bool("remote", false, "remote positions only")
	searchCmd.Flags().Float64("salary-min", 0, "minimum salary filter")
	searchCmd.Flags().Int("max-days-old", 0, "maximum posting age in days")
}

func runSearch(cmd *cobra.Command, keywords string) {
	cfg, zlog := setup()
	ctx := cmd.Context()

	store := openStore(cfg, zlog)
	defer store.Close()

	save, _ := cmd.Flags().GetBool("save")
	if save {
		if err := store.CreateTables(); err != nil {
			zlog.Fatal("creating tables", zap.Error(err))
		}
	}

	location, _ := cmd.Flags().GetString("location")
	analyze, _ := cmd.Flags().GetBool("analyze")
	page, _ := cmd.Flags().GetString("page")
	datePosted, _ := cmd.Flags().GetString("date-posted")
	jobType, _ := cmd.Flags().GetString("job-type")
	remote, _ := cmd.Flags().GetBool("remote")
	salaryMin, _ := cmd.Flags().GetFloat64("salary-min")
	maxDaysOld, _ := cmd.Flags().GetInt("max-days-old")
	limit, _ := cmd.Flags().GetInt("limit")

	if source, _ := cmd.Flags().GetString("source"); source != "" {
		if err := restrictToPlatform(cfg, source); err != nil {
			zlog.Fatal("invalid --source", zap.Error(err))
		}
	}

	ag := buildAgent(ctx, cfg, store, zlog)

	result, err := ag.ExecuteSearch(ctx, agent.SearchRequest{
		Keywords: keywords,
		Location: location,
		Analyze:  analyze,
		SaveToDB: save,
		Options: scraper.Options{
			Page:           page,
			DatePosted:     datePosted,
			JobType:        jobType,
			Remote:         remote,
			SalaryMin:      salaryMin,
			MaxDaysOld:     maxDaysOld,
			ResultsPerPage: limit,
		},
	})
	if err != nil {
		zlog.Fatal("search failed", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	if outputFile, _ := cmd.Flags().GetString("output-file"); outputFile != "" {
		if err := os.WriteFile(outputFile, pretty, 0o644); err != nil {
			zlog.Fatal("writing output file", zap.Error(err))
		}
		zlog.Info("results written", zap.String("file", outputFile))
		return
	}
	fmt.Println(string(pretty))
}
