package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JackyZzZz/Jacky-PeterPortal/internal/server"
	"github.com/JackyZzZz/Jacky-PeterPortal/internal/utils"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the schedule HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := viper.GetString("server.addr")
		if cmd.Flags().Changed("listen") {
			addr, _ = cmd.Flags().GetString("listen")
		}

		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		cache, err := newCache(db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if spec := viper.GetString("server.warmcron"); spec != "" {
			c := cron.New(cron.WithLocation(calendar.Pacific()))
			if _, err := c.AddFunc(spec, func() { warmAround(ctx, cache, time.Now()) }); err != nil {
				return err
			}
			c.Start()
			defer c.Stop()
		}

		s := server.New(
			calendar.NewResolver(cache, utils.Log),
			cache,
			viper.GetString("server.username"),
			viper.GetString("server.password"),
		)
		return s.Start(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address (overrides server.addr)")
}

// warmAround refreshes the academic years the resolver consults on now.
func warmAround(ctx context.Context, cache calendar.MappingSource, now time.Time) {
	for _, y := range calendar.CandidateYears(now) {
		if _, err := cache.GetOrBuild(ctx, y); err != nil {
			utils.Log.Warnf("Warming %d-%d: %v", y, y+1, err)
		}
	}
}
