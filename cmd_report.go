package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planboard/pkg/session"
	"github.com/harrisonrobin/planboard/pkg/view"
)

var (
	summaryInput inputFlags
	summaryJSON  bool

	listInput      inputFlags
	listOwners     []string
	listStatuses   []string
	listAlert      string
	listDefaultSel bool

	topInput inputFlags
	topN     int
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the planning KPIs",
	Long: `Shows the number of rows, the count per status, the mean reported
progress and the number of delayed rows, as of the reference date.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List planning rows with their expected progress and delay",
	Long: `Lists the planning table. Owner and status filters accept several
values; an empty filter keeps every row.

Example:
  planboard list -f plan.xlsx --owner Ana --owner Bo --alert late`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Show the largest delays and the owner by status breakdown",
	Args:  cobra.NoArgs,
	RunE:  runTop,
}

func init() {
	summaryInput.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print the summary as JSON")

	listInput.register(listCmd)
	listCmd.Flags().StringSliceVar(&listOwners, "owner", nil, "Keep rows of these owners")
	listCmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Keep rows with these statuses")
	listCmd.Flags().StringVar(&listAlert, "alert", "", "Keep only late or ok rows (late|ok)")
	listCmd.Flags().BoolVar(&listDefaultSel, "default-owners", false, "Preselect the first three owners")

	topInput.register(topCmd)
	topCmd.Flags().IntVarP(&topN, "count", "n", 5, "Number of rows to show")
}

func runSummary(cmd *cobra.Command, args []string) error {
	s, err := summaryInput.load(cmd)
	if err != nil {
		return err
	}

	sum := s.Summary()
	if summaryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ReferenceDate string `json:"reference_date"`
			Summary       any    `json:"summary"`
		}{s.RefDate().String(), sum})
	}
	fmt.Fprint(cmd.OutOrStdout(), view.New().Summary(sum, s.RefDate()))
	return nil
}

func parseAlert(v string) (session.Alert, error) {
	switch a := session.Alert(v); a {
	case session.AlertAll, session.AlertLate, session.AlertOK:
		return a, nil
	}
	return "", fmt.Errorf("invalid --alert %q (use late or ok)", v)
}

func runList(cmd *cobra.Command, args []string) error {
	alert, err := parseAlert(listAlert)
	if err != nil {
		return err
	}
	s, err := listInput.load(cmd)
	if err != nil {
		return err
	}

	f := session.Filter{Owners: listOwners, Statuses: listStatuses, Alert: alert}
	if listDefaultSel && len(f.Owners) == 0 {
		f.Owners = s.DefaultOwners()
	}

	r := view.New()
	out := cmd.OutOrStdout()
	fmt.Fprint(out, r.Summary(s.Summary(), s.RefDate()))
	fmt.Fprintln(out)
	fmt.Fprint(out, r.Tasks("Tasks", view.Rows(s.Tasks(), s.Filtered(f))))
	return nil
}

func runTop(cmd *cobra.Command, args []string) error {
	if topN < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	s, err := topInput.load(cmd)
	if err != nil {
		return err
	}

	r := view.New()
	out := cmd.OutOrStdout()
	fmt.Fprint(out, r.Top(view.Rows(s.Tasks(), s.TopDelays(topN))))
	fmt.Fprintln(out)
	fmt.Fprint(out, r.Breakdown(s.Breakdown()))
	return nil
}
