package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/storage"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Print the instruction dates of an academic year",
	Example: `  peterportal calendar --year 2023
  peterportal calendar --year 2023 --ics > uci-2023.ics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		year, _ := cmd.Flags().GetInt("year")
		asICS, _ := cmd.Flags().GetBool("ics")
		asJSON, _ := cmd.Flags().GetBool("json")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		if year == 0 {
			year = currentAcademicYear(time.Now())
		}

		var db *storage.DB
		var err error
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
		m, err := cache.GetOrBuild(cmd.Context(), year)
		if err != nil {
			return err
		}

		switch {
		case asICS:
			fmt.Print(calendar.ICS(year, m, time.Now()))
		case asJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		default:
			printMapping(m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().IntP("year", "y", 0, "Academic year, by the year its fall quarter starts in (default: current)")
	calendarCmd.Flags().Bool("ics", false, "Print an iCalendar feed instead of a table")
	calendarCmd.Flags().Bool("json", false, "Print the quarter mapping as JSON")
	calendarCmd.Flags().Bool("no-cache", false, "Scrape the calendar without reading or writing the cache DB")
}

func printMapping(m calendar.QuarterMapping) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "QUARTER\tINSTRUCTION BEGINS\tINSTRUCTION ENDS\tFINALS WEEK\t")
	for _, label := range m.Labels() {
		r := m[label]
		finals := r.End.AddDate(0, 0, 1)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", label, r.Begin.Format("Mon Jan 2 2006"), r.End.Format("Mon Jan 2 2006"), finals.Format("Jan 2")+" - "+finals.AddDate(0, 0, 6).Format("Jan 2"))
	}
	w.Flush()
}
