package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/sheet"
)

var (
	exportInput  inputFlags
	exportFormat string
	exportOut    string
	exportDrive  bool

	importName string
	importID   string
	importOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the derived planning table",
	Long: `Writes the planning table with its expected progress and delay columns
as XLSX (with a Dashboard sheet), CSV or SQLite. With --drive the XLSX
export is uploaded to Google Drive instead, into the configured folder.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Download the planning workbook from Google Drive",
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

func init() {
	exportInput.register(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "Output format: xlsx, csv or sqlite")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: a timestamped name)")
	exportCmd.Flags().BoolVar(&exportDrive, "drive", false, "Upload the XLSX export to Google Drive")

	importCmd.Flags().StringVar(&importName, "name", "", "File name on Drive (default from config)")
	importCmd.Flags().StringVar(&importID, "id", "", "File ID on Drive")
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "Local file (default: the Drive file name)")
}

func exportPath(format, out string, now time.Time) (string, error) {
	switch format {
	case "xlsx", "csv", "sqlite":
	default:
		return "", fmt.Errorf("unsupported --format %q (use xlsx, csv or sqlite)", format)
	}
	if out != "" {
		return out, nil
	}
	return defaultExportName(format, now), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportDrive && exportFormat != "xlsx" {
		return fmt.Errorf("--drive uploads XLSX only")
	}
	path, err := exportPath(exportFormat, exportOut, time.Now())
	if err != nil {
		return err
	}
	s, err := exportInput.load(cmd)
	if err != nil {
		return err
	}

	if !exportDrive {
		if err := save(cmd.Context(), path, s, exportInput.options()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", s.Len(), path)
		return nil
	}

	var buf bytes.Buffer
	opts := sheet.WriteOptions{Options: exportInput.options(), Caption: caption(s.RefDate(), time.Now())}
	if err := sheet.WriteXLSX(&buf, s.Dataset(), opts); err != nil {
		return err
	}
	client, err := connectDrive(cmd.Context())
	if err != nil {
		return err
	}
	file, err := client.Upload(cmd.Context(), filepath.Base(path), cfg.Drive.FolderID, &buf)
	if err != nil {
		return err
	}
	if err := client.SaveIndex(); err != nil {
		logger.Warn("Failed to save Drive file index", zap.Error(err))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to Drive (id %s)\n", file.Name, file.ID)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	name := importName
	if name == "" && importID == "" {
		name = cfg.Drive.FileName
	}
	if name == "" && importID == "" {
		return fmt.Errorf("no Drive file: pass --name or --id, or set drive.file_name")
	}

	client, err := connectDrive(cmd.Context())
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	file, err := fetch(cmd.Context(), client, importID, name, &buf)
	if err != nil {
		return err
	}

	out := importOut
	if out == "" {
		out = filepath.Base(file.Name)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s (%d bytes) to %s\n", file.Name, buf.Len(), out)
	return nil
}
