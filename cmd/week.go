package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/storage"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Print the current academic week",
	Example: `  peterportal week
  peterportal week --date 2023-10-02 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dateFlag, _ := cmd.Flags().GetString("date")
		asJSON, _ := cmd.Flags().GetBool("json")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		now, err := parseDateFlag(dateFlag, time.Now())
		if err != nil {
			return err
		}

		var db *storage.DB
		if !noCache {
			db, _, err = openDB()
			if err != nil {
				return err
			}
			defer db.Close()
		}

		cache, err := newCache(db)
		if err != nil {
			return err
		}
		week, err := calendar.NewResolver(cache, nil).Resolve(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("unable to determine current week: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(week)
		}
		fmt.Println(week.Display)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weekCmd)
	weekCmd.Flags().String("date", "", "Resolve this date (YYYY-MM-DD, Pacific time) instead of now")
	weekCmd.Flags().Bool("json", false, "Print the week descriptor as JSON")
	weekCmd.Flags().Bool("no-cache", false, "Scrape the calendar without reading or writing the cache DB")
}

// parseDateFlag reads a YYYY-MM-DD date as noon in the institutional zone.
// An empty value means now.
func parseDateFlag(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, calendar.Pacific())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", value)
	}
	return d.Add(12 * time.Hour), nil
}
