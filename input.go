package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/auth"
	"github.com/harrisonrobin/planboard/pkg/config"
	"github.com/harrisonrobin/planboard/pkg/drive"
	"github.com/harrisonrobin/planboard/pkg/index"
	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/session"
	"github.com/harrisonrobin/planboard/pkg/sheet"
	"github.com/harrisonrobin/planboard/pkg/store"
	"github.com/harrisonrobin/planboard/pkg/util"
)

var errNoInput = errors.New("no input: pass --file, --drive-name, --drive-id or --use-default")

// inputFlags select the workbook a command reads.
type inputFlags struct {
	file       string
	driveName  string
	driveID    string
	useDefault bool
	sheet      string
	headerRow  int
	asOf       string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "Local XLSX workbook")
	fl.StringVar(&f.driveName, "drive-name", "", "Workbook file name on Google Drive")
	fl.StringVar(&f.driveID, "drive-id", "", "Workbook file ID on Google Drive")
	fl.BoolVar(&f.useDefault, "use-default", false, "Use the configured default workbook")
	fl.StringVar(&f.sheet, "sheet", "", "Sheet holding the planning table (default from config)")
	fl.IntVar(&f.headerRow, "header-row", 0, "1-based header row (default from config)")
	fl.StringVar(&f.asOf, "as-of", "", "Reference date YYYY-MM-DD (default: today)")
}

func (f *inputFlags) options() sheet.Options {
	opts := sheet.Options{SheetName: cfg.Sheet.Name, HeaderRow: cfg.Sheet.HeaderRow}
	if f.sheet != "" {
		opts.SheetName = f.sheet
	}
	if f.headerRow > 0 {
		opts.HeaderRow = f.headerRow
	}
	return opts
}

// open returns the workbook bytes and a name describing where they came from.
func (f *inputFlags) open(ctx context.Context) (io.Reader, string, error) {
	switch {
	case f.file != "":
		b, err := os.ReadFile(f.file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read workbook: %w", err)
		}
		return bytes.NewReader(b), f.file, nil
	case f.driveID != "" || f.driveName != "":
		client, err := connectDrive(ctx)
		if err != nil {
			return nil, "", err
		}
		var buf bytes.Buffer
		file, err := fetch(ctx, client, f.driveID, f.driveName, &buf)
		if err != nil {
			return nil, "", err
		}
		return &buf, file.Name, nil
	case f.useDefault:
		b, err := os.ReadFile(cfg.Sheet.DefaultFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read default workbook: %w", err)
		}
		return bytes.NewReader(b), cfg.Sheet.DefaultFile, nil
	}
	return nil, "", errNoInput
}

func (f *inputFlags) refDate() (*model.Date, error) {
	if f.asOf == "" {
		return nil, nil
	}
	d, err := model.ParseDate(f.asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of: %w", err)
	}
	return &d, nil
}

// load builds a session from the selected workbook.
func (f *inputFlags) load(cmd *cobra.Command) (*session.Session, error) {
	ref, err := f.refDate()
	if err != nil {
		return nil, err
	}
	r, name, err := f.open(cmd.Context())
	if err != nil {
		return nil, err
	}

	res, err := sheet.Load(r, f.options())
	if err != nil {
		return nil, err
	}
	logger.Debug("Workbook loaded", zap.String("source", name), zap.Int("rows", len(res.Dataset.Tasks)))
	if len(res.Missing) > 0 {
		logger.Warn("Planning table lacks columns", zap.Strings("missing", res.Missing))
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: missing columns: %s\n", strings.Join(res.Missing, ", "))
	}

	var opts []session.Option
	if ref != nil {
		opts = append(opts, session.AsOf(*ref))
	}
	return session.New(res.Dataset, opts...), nil
}

func newAuthenticator() (*auth.Authenticator, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return auth.New(dir, drive.Scopes, logger), nil
}

func connectDrive(ctx context.Context) (*drive.Client, error) {
	a, err := newAuthenticator()
	if err != nil {
		return nil, err
	}
	idx, err := index.NewFileIndex(a.Dir)
	if err != nil {
		logger.Warn("Failed to load Drive file index", zap.Error(err))
		idx = nil
	}
	return drive.Connect(ctx, a, idx, logger)
}

// fetch downloads a Drive file by ID, or by name when id is empty.
func fetch(ctx context.Context, client *drive.Client, id, name string, w io.Writer) (*drive.File, error) {
	var (
		file *drive.File
		err  error
	)
	if id != "" {
		file, err = client.Get(ctx, id)
	} else {
		file, err = client.FindByName(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	if _, err := client.Download(ctx, file.ID, w); err != nil {
		return nil, err
	}
	if err := client.SaveIndex(); err != nil {
		logger.Warn("Failed to save Drive file index", zap.Error(err))
	}
	return file, nil
}

// save writes the session's dataset to path, choosing the format from the
// file extension.
func save(ctx context.Context, path string, s *session.Session, sheetOpts sheet.Options) error {
	ds := s.Dataset()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		var buf bytes.Buffer
		err := sheet.WriteXLSX(&buf, ds, sheet.WriteOptions{Options: sheetOpts, Caption: caption(s.RefDate(), time.Now())})
		if err != nil {
			return err
		}
		return os.WriteFile(path, buf.Bytes(), 0644)
	case ".csv":
		var buf bytes.Buffer
		if err := sheet.WriteCSV(&buf, ds); err != nil {
			return err
		}
		return os.WriteFile(path, buf.Bytes(), 0644)
	case ".db", ".sqlite", ".sqlite3":
		return store.Export(ctx, path, &ds, s.RefDate())
	}
	return fmt.Errorf("unsupported output format %q (use .xlsx, .csv or .db)", filepath.Ext(path))
}

func caption(ref model.Date, now time.Time) string {
	return fmt.Sprintf("Dashboard generated %s, reference date %s", now.Format("2006-01-02 15:04"), ref)
}

// defaultExportName is the file name used when export gets no --out.
func defaultExportName(format string, now time.Time) string {
	switch format {
	case "csv":
		return "planning_export.csv"
	case "sqlite":
		return "planning_export_" + util.Stamp(now) + ".db"
	}
	return "Dashboard_MultiProjets_export_" + util.Stamp(now) + ".xlsx"
}
