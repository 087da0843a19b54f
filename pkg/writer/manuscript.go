package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/unidoc/unioffice/document"
)

// WriteManuscript writes the generated lots as one DOCX document: the title,
// then a heading and the paragraphs of each lot.
func WriteManuscript(w io.Writer, title string, lots []LotResult) error {
	doc := document.New()

	para := doc.AddParagraph()
	para.SetStyle("Title")
	para.AddRun().AddText(title)

	for _, l := range lots {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading1")
		heading.AddRun().AddText(fmt.Sprintf("Pages %d-%d", l.Lot.Start, l.Lot.End))

		for _, line := range strings.Split(l.text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			doc.AddParagraph().AddRun().AddText(line)
		}
	}

	if err := doc.Save(w); err != nil {
		return fmt.Errorf("failed to write manuscript: %w", err)
	}
	return nil
}
