package cmd

import (
	"encoding/json"
	"fmt"

	"jobscout/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs stored in the database",
	Run: func(cmd *cobra.Command, _ []string) {
		runJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.Flags().IntP("limit", "n", 20, "maximum number of jobs to print")
	jobsCmd.Flags().StringP("source", "s", "", "filter by platform, e.g. indeed")
	jobsCmd.Flags().StringP("keywords", "k", "", "filter by keyword in title or description")
	jobsCmd.Flags().Bool("stats", false, "print database statistics instead of jobs")
}

func runJobs(cmd *cobra.Command) {
	cfg, zlog := setup()
	ctx := cmd.Context()

	store := openStore(cfg, zlog)
	defer store.Close()

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		dbStats, err := store.GetStats(ctx)
		if err != nil {
			zlog.Fatal("reading stats", zap.Error(err))
		}
		pretty, _ := json.MarshalIndent(dbStats, "", "  ")
		fmt.Println(string(pretty))
		return
	}

	limit, _ := cmd.Flags().GetInt("limit")
	source, _ := cmd.Flags().GetString("source")
	keywords, _ := cmd.Flags().GetString("keywords")

	jobs, err := store.ListJobs(ctx, storage.JobQuery{Limit: limit, Source: source, Keywords: keywords})
	if err != nil {
		zlog.Fatal("listing jobs", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(map[string]any{"count": len(jobs), "jobs": jobs}, "", "  ")
	fmt.Println(string(pretty))
}
