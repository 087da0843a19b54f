package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/planboard/pkg/writer"
)

var (
	writeTitle    string
	writePages    int
	writeWords    int
	writePerLot   int
	writeLanguage string
	writeOutDir   string
	writeModel    string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Generate a long text lot by lot and bundle it",
	Long: `Asks Gemini for the text page range by page range, saves each lot as a
text file and bundles the successful lots, plus a DOCX manuscript of all
of them, into a ZIP archive. A failed lot is reported and skipped.

The API key is read from GEMINI_API_KEY, GOOGLE_API_KEY or writer.api_key.

Example:
  planboard write --title "Mon Livre" --pages 120 --pages-per-lot 5`,
	Args: cobra.NoArgs,
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeTitle, "title", "", "Title of the text (required)")
	writeCmd.Flags().IntVar(&writePages, "pages", 10, "Total number of pages")
	writeCmd.Flags().IntVar(&writeWords, "words-per-page", 0, "Words per page (default from config)")
	writeCmd.Flags().IntVar(&writePerLot, "pages-per-lot", 0, "Pages per request (default from config)")
	writeCmd.Flags().StringVar(&writeLanguage, "language", "", "Output language (default from config)")
	writeCmd.Flags().StringVar(&writeOutDir, "out-dir", "", "Output directory (default from config)")
	writeCmd.Flags().StringVar(&writeModel, "model", "", "Gemini model (default from config)")
	_ = writeCmd.MarkFlagRequired("title")
}

func writeProject() writer.Project {
	return writer.Project{
		Title:        writeTitle,
		TotalPages:   writePages,
		WordsPerPage: cmp.Or(writeWords, cfg.Writer.WordsPerPage),
		PagesPerLot:  cmp.Or(writePerLot, cfg.Writer.PagesPerLot),
		Language:     cmp.Or(writeLanguage, cfg.Writer.Language),
	}
}

func runWrite(cmd *cobra.Command, args []string) error {
	p := writeProject()
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := writer.NewGenAI(ctx, cfg.APIKey(), cmp.Or(writeModel, cfg.Writer.Model), cfg.Writer.Temperature)
	if err != nil {
		return err
	}
	return generate(ctx, cmd, p, gen)
}

func generate(ctx context.Context, cmd *cobra.Command, p writer.Project, gen writer.Generator) error {
	out := cmd.OutOrStdout()
	r := &writer.Runner{
		Gen:    gen,
		Dir:    cmp.Or(writeOutDir, cfg.Writer.OutputDir),
		Logger: logger,
		Progress: func(done, total int) {
			fmt.Fprintf(out, "Lot %d/%d done\n", done, total)
		},
	}

	res, err := r.Run(ctx, p)
	if res != nil {
		for _, l := range res.Lots {
			if l.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Lot %s failed: %v\n", l.Lot, l.Err)
			}
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Archive: %s (%d lots, %d failed)\n", res.Archive, len(res.Lots), res.Failed())
	return nil
}
