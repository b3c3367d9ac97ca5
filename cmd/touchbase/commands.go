package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emilianohg/touchbase/internal/legacy"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/status"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid company id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// dateFlag reads a YYYY-MM-DD flag, falling back to today.
func dateFlag(cmd *cobra.Command, name string, today time.Time) (time.Time, error) {
	raw, _ := cmd.Flags().GetString(name)
	if raw == "" {
		return today, nil
	}
	return recurrence.ParseDate(raw)
}

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List companies with their periodicity and next due date",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		overviews, err := e.tracker.Overviews(cmd.Context(), e.tracker.Today())
		if err != nil {
			return err
		}
		printCompanies(os.Stdout, overviews)
		return nil
	},
}

func printCompanies(w io.Writer, overviews []schedule.Overview) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPERIODICITY\tNEXT DUE")
	for _, o := range overviews {
		next := "-"
		if o.NextDue != nil {
			next = fmt.Sprintf("%s (%s)", o.NextDue.Format(recurrence.DateLayout), o.NextDueStatus)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", o.CompanyID, o.CompanyName, o.Rule, next)
	}
	tw.Flush()
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Show overdue and due-today communications",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		today, err := dateFlag(cmd, "date", e.tracker.Today())
		if err != nil {
			return err
		}
		n, err := e.tracker.Notifications(cmd.Context(), today)
		if err != nil {
			return err
		}
		printNotifications(os.Stdout, n)
		return nil
	},
}

func printNotifications(w io.Writer, n status.Notifications) {
	if n.Empty() {
		fmt.Fprintln(w, "Nothing overdue or due today.")
		return
	}

	section := func(title string, items []status.Notification) {
		fmt.Fprintf(w, "%s (%d)\n", title, len(items))
		for _, item := range items {
			fmt.Fprintf(w, "  %s  %-20s %s  [%d/%s]\n",
				item.Record.Date.Format(recurrence.DateLayout),
				item.CompanyName,
				item.Record.Type,
				item.CompanyID,
				item.Record.ID,
			)
		}
	}
	section("Overdue", n.Overdue)
	section("Due today", n.DueToday)
}

var logCmd = &cobra.Command{
	Use:   "log <company-id>...",
	Short: "Log a communication for one or more companies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		date, err := dateFlag(cmd, "date", e.tracker.Today())
		if err != nil {
			return err
		}
		kind, _ := cmd.Flags().GetString("type")
		notes, _ := cmd.Flags().GetString("notes")

		records, err := e.tracker.LogCommunications(cmd.Context(), ids, models.CommunicationRecord{
			Type:  kind,
			Date:  date,
			Notes: notes,
		})
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("Logged %s for company %d on %s (%s)\n",
				r.Type, r.CompanyID, r.Date.Format(recurrence.DateLayout), r.ID)
		}
		return nil
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <company-id> <communication-id>",
	Short: "Mark a communication as completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		rec, err := e.tracker.MarkCompleted(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Completed %s of %s\n", rec.Type, rec.Date.Format(recurrence.DateLayout))
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <company-id>",
	Short: "Show a company's recent communications and upcoming due dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		today, err := dateFlag(cmd, "date", e.tracker.Today())
		if err != nil {
			return err
		}
		o, err := e.tracker.Overview(cmd.Context(), id, today)
		if err != nil {
			return err
		}
		printSchedule(os.Stdout, o, today)
		return nil
	},
}

func printSchedule(w io.Writer, o schedule.Overview, today time.Time) {
	fmt.Fprintf(w, "%s\n", o.CompanyName)
	fmt.Fprintf(w, "Periodicity: %s\n", o.Rule)
	if o.NextDue == nil {
		fmt.Fprintln(w, "Next due: nothing scheduled")
	} else {
		fmt.Fprintf(w, "Next due: %s (%s)\n", o.NextDue.Format(recurrence.DateLayout), o.NextDueStatus)
	}

	if len(o.Upcoming) > 0 {
		fmt.Fprintln(w, "\nUpcoming:")
		for _, d := range o.Upcoming {
			fmt.Fprintf(w, "  %s\n", d.Format(recurrence.DateLayout))
		}
	}

	if len(o.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent:")
		for _, r := range o.Recent {
			fmt.Fprintf(w, "  %s  %-16s %-9s %s\n",
				r.Date.Format(recurrence.DateLayout), r.Type, status.EffectiveStatus(r, today), r.Notes)
		}
	}
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show how often each communication method is used",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		h, err := e.tracker.Histogram(cmd.Context())
		if err != nil {
			return err
		}
		if err := writeReport(os.Stdout, schedule.SortedHistogram(h), format); err != nil {
			return err
		}
		return nil
	},
}

func writeReport(w io.Writer, buckets []schedule.Bucket, format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tCOUNT")
		for _, b := range buckets {
			fmt.Fprintf(tw, "%s\t%d\n", b.Type, b.Count)
		}
		return tw.Flush()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buckets)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(buckets); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (expected text, json or yaml)", format)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import companies and communications from a JSON export",
	Long: `Import companies and their communications from a JSON export.

The file holds either an array of companies or an object with a "companies"
array. Custom periodicities that were stored without an end date or an
occurrence count need --until.

Examples:
  touchbase import companies.json
  touchbase import companies.json --until 2025-12-31`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts legacy.Options
		if raw, _ := cmd.Flags().GetString("until"); raw != "" {
			until, err := recurrence.ParseDate(raw)
			if err != nil {
				return err
			}
			opts.Until = &until
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		companies, err := legacy.Import(f, opts)
		if err != nil {
			return err
		}

		e, err := setup("")
		if err != nil {
			return err
		}
		defer e.close()

		n, err := e.tracker.Import(cmd.Context(), companies)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d companies from %s\n", n, args[0])
		return nil
	},
}

func init() {
	notifyCmd.Flags().String("date", "", "Evaluate as of this date (YYYY-MM-DD, default today)")

	logCmd.Flags().StringP("type", "t", "", "Communication type, e.g. Email or Phone Call")
	logCmd.Flags().StringP("date", "d", "", "Date of the communication (YYYY-MM-DD, default today)")
	logCmd.Flags().StringP("notes", "n", "", "Notes")
	_ = logCmd.MarkFlagRequired("type")

	scheduleCmd.Flags().String("date", "", "Evaluate as of this date (YYYY-MM-DD, default today)")

	reportCmd.Flags().StringP("format", "f", "text", "Output format: text, json or yaml")

	importCmd.Flags().String("until", "", "End date for custom periodicities without one (YYYY-MM-DD)")
}
