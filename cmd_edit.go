package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/session"
	"github.com/harrisonrobin/planboard/pkg/view"
)

// rowFlags carry the cell values of add and edit.
type rowFlags struct {
	input inputFlags
	out   string

	project  string
	owner    string
	status   string
	start    string
	end      string
	progress float64
	extra    map[string]string

	clearStart    bool
	clearEnd      bool
	clearProgress bool
}

func (f *rowFlags) register(cmd *cobra.Command, withClear bool) {
	f.input.register(cmd)
	fl := cmd.Flags()
	fl.StringVarP(&f.out, "out", "o", "", "Write the edited table to this file (.xlsx, .csv or .db)")
	fl.StringVar(&f.project, "project", "", "Project name")
	fl.StringVar(&f.owner, "owner", "", "Owner")
	fl.StringVar(&f.status, "status", "", "Status")
	fl.StringVar(&f.start, "start", "", "Start date YYYY-MM-DD")
	fl.StringVar(&f.end, "end", "", "End date YYYY-MM-DD")
	fl.Float64Var(&f.progress, "progress", 0, "Reported progress in percent")
	fl.StringToStringVar(&f.extra, "set", nil, "Extra column values, as Column=value")
	if withClear {
		fl.BoolVar(&f.clearStart, "clear-start", false, "Remove the start date")
		fl.BoolVar(&f.clearEnd, "clear-end", false, "Remove the end date")
		fl.BoolVar(&f.clearProgress, "clear-progress", false, "Remove the reported progress")
	}
}

func optDate(cmd *cobra.Command, name, value string) (*model.Date, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &d, nil
}

func optString(cmd *cobra.Command, name, value string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// patch builds a Patch from the flags the user actually passed.
func (f *rowFlags) patch(cmd *cobra.Command) (session.Patch, error) {
	p := session.Patch{
		Project:       optString(cmd, "project", f.project),
		Owner:         optString(cmd, "owner", f.owner),
		Status:        optString(cmd, "status", f.status),
		Extra:         f.extra,
		ClearStart:    f.clearStart,
		ClearEnd:      f.clearEnd,
		ClearProgress: f.clearProgress,
	}
	var err error
	if p.Start, err = optDate(cmd, "start", f.start); err != nil {
		return p, err
	}
	if p.End, err = optDate(cmd, "end", f.end); err != nil {
		return p, err
	}
	if cmd.Flags().Changed("progress") {
		p.Progress = model.Float(f.progress)
	}
	return p, p.Validate()
}

var (
	addFlags    rowFlags
	editFlags   rowFlags
	deleteInput inputFlags
	deleteOut   string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a planning row",
	Long: `Appends a row and shows it with its expected progress and delay. The
table is only written back when --out is given.

Example:
  planboard add -f plan.xlsx --project Gamma --owner Ana --start 2024-03-01 \
    --end 2024-04-30 --status Planned --progress 0 -o plan.xlsx`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:   "edit <row>",
	Short: "Change cells of a planning row",
	Long: `Changes the given cells of one row. The row is a row number as shown by
list, a row ID or an ID prefix. Only the flags passed are changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <row>...",
	Short: "Remove planning rows",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	addFlags.register(addCmd, false)
	editFlags.register(editCmd, true)
	deleteInput.register(deleteCmd)
	deleteCmd.Flags().StringVarP(&deleteOut, "out", "o", "", "Write the edited table to this file (.xlsx, .csv or .db)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	p, err := addFlags.patch(cmd)
	if err != nil {
		return err
	}
	s, err := addFlags.input.load(cmd)
	if err != nil {
		return err
	}

	t := model.Task{Extra: p.Extra, Start: p.Start, End: p.End, Progress: p.Progress}
	if p.Project != nil {
		t.Project = *p.Project
	}
	if p.Owner != nil {
		t.Owner = *p.Owner
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	row := s.Add(t)
	logger.Debug("Row added", zap.String("id", row.ID))

	return finishEdit(cmd, s, addFlags.out, addFlags.input, []model.Task{row})
}

func runEdit(cmd *cobra.Command, args []string) error {
	p, err := editFlags.patch(cmd)
	if err != nil {
		return err
	}
	if p.Empty() {
		return fmt.Errorf("nothing to change: pass at least one cell flag")
	}
	s, err := editFlags.input.load(cmd)
	if err != nil {
		return err
	}

	id, err := s.Resolve(args[0])
	if err != nil {
		return err
	}
	row, err := s.Edit(id, p)
	if err != nil {
		return err
	}
	logger.Debug("Row edited", zap.String("id", row.ID))

	return finishEdit(cmd, s, editFlags.out, editFlags.input, []model.Task{row})
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := deleteInput.load(cmd)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(args))
	for _, ref := range args {
		id, err := s.Resolve(ref)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if err := s.Delete(ids...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d row(s), %d left.\n", len(ids), s.Len())

	return finishEdit(cmd, s, deleteOut, deleteInput, nil)
}

// finishEdit shows the changed rows and the new KPIs, then saves when out
// is set.
func finishEdit(cmd *cobra.Command, s *session.Session, out string, in inputFlags, changed []model.Task) error {
	r := view.New()
	w := cmd.OutOrStdout()
	if len(changed) > 0 {
		fmt.Fprint(w, r.Tasks("Changed", view.Rows(s.Tasks(), changed)))
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, r.Summary(s.Summary(), s.RefDate()))

	if out == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Not saved: pass --out to write the table.")
		return nil
	}
	if err := save(cmd.Context(), out, s, in.options()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved %s\n", out)
	return nil
}
