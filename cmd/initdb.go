package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database tables",
	Run: func(cmd *cobra.Command, _ []string) {
		runInitDB(cmd)
	},
}

func init() {
	rootCmd.AddCommand(initDBCmd)

	initDBCmd.Flags().Bool("drop", false, "drop existing tables before creating them")
}

func runInitDB(cmd *cobra.Command) {
	cfg, zlog := setup()

	store := openStore(cfg, zlog)
	defer store.Close()

	if drop, _ := cmd.Flags().GetBool("drop"); drop {
		if err := store.DropTables(); err != nil {
			zlog.Fatal("dropping tables", zap.Error(err))
		}
		zlog.Info("tables dropped")
	}

	if err := store.CreateTables(); err != nil {
		zlog.Fatal("creating tables", zap.Error(err))
	}
	zlog.Info("tables created", zap.String("path", cfg.Database.Path))
}
