package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/JackyZzZz/Jacky-PeterPortal/internal/utils"
	"github.com/JackyZzZz/Jacky-PeterPortal/pkg/calendar"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the calendar cache database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbFile, err := utils.GetAbsDBPath(viper.GetString("db.path"))
		if err != nil {
			return err
		}
		if _, err := os.Stat(dbFile); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbFile)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbFile, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbFile)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// listCmd prints every cached academic year.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cached quarter mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.Collection(calendar.CacheCollection).List(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No cached quarter mappings. Run `peterportal warm` to fill the cache.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "KEY\tQUARTERS\tSIZE\tUPDATED\t")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", r.Key, cachedLabels(r.Value), humanize.Bytes(uint64(len(r.Value))), humanize.Time(r.UpdatedAt))
		}
		w.Flush()
		return nil
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the records in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "COLLECTION\tRECORDS\tSIZE\t")

		var totalRecords int
		var totalBytes int64
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%s\t\n", s.Collection, s.RecordCount, humanize.Bytes(uint64(s.TotalBytes)))
			totalRecords += s.RecordCount
			totalBytes += s.TotalBytes
		}

		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%s\t\n", totalRecords, humanize.Bytes(uint64(totalBytes)))

		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(listCmd)
	dbCmd.AddCommand(statsCmd)
}

// cachedLabels lists the quarter labels of a cached mapping without decoding
// its dates. Values that are not a JSON object read as "(corrupt)".
func cachedLabels(value []byte) string {
	if !gjson.ValidBytes(value) {
		return "(corrupt)"
	}
	res := gjson.ParseBytes(value)
	if !res.IsObject() {
		return "(corrupt)"
	}
	var labels string
	res.ForEach(func(key, _ gjson.Result) bool {
		if labels != "" {
			labels += ", "
		}
		labels += key.String()
		return true
	})
	if labels == "" {
		return "(empty)"
	}
	return labels
}
