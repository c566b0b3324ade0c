package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/JackyZzZz/Jacky-PeterPortal/internal/utils"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Scrape and cache the quarter mappings of a range of academic years",
	Example: `  peterportal warm
  peterportal warm --from 2019 --to 2024`,
	RunE: func(cmd *cobra.Command, args []string) error {
		current := currentAcademicYear(time.Now())
		from, _ := cmd.Flags().GetInt("from")
		to, _ := cmd.Flags().GetInt("to")
		if from == 0 {
			from = current - 1
		}
		if to == 0 {
			to = current
		}
		years := utils.AcademicYearsBetween(from, to)

		db, dbFile, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		lock, err := utils.NewWarmLock(dbFile)
		if err != nil {
			return err
		}
		if err := lock.Acquire(cmd.Context()); err != nil {
			return err
		}
		defer lock.Release()

		cache, err := newCache(db)
		if err != nil {
			return err
		}

		var failed int
		for _, year := range years {
			m, err := cache.GetOrBuild(cmd.Context(), year)
			switch {
			case errors.Is(err, calendar.ErrNotPublished):
				fmt.Printf("%d-%d: not published yet\n", year, year+1)
			case err != nil:
				failed++
				utils.Log.Errorf("%d-%d: %v", year, year+1, err)
			default:
				fmt.Printf("%d-%d: %d quarters cached\n", year, year+1, len(m))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d academic year(s) could not be cached", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(warmCmd)
	warmCmd.Flags().Int("from", 0, "First academic year to cache (default: previous)")
	warmCmd.Flags().Int("to", 0, "Last academic year to cache (default: current)")
}
