package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/varianti/internal/compare"
	"github.com/fumiama/go-docx"
)

const (
	removedColor = "C00000"
	addedColor   = "00801F"
)

// WriteDOCX writes a Word document with a bold title paragraph followed by
// one paragraph per line of text.
func WriteDOCX(w io.Writer, title string, lines []string) error {
	doc := docx.New().WithDefaultTheme()
	heading(doc, title)
	for _, line := range lines {
		preserve(doc.AddParagraph().AddText(line))
	}
	return write(doc, w)
}

// WriteComparisonDOCX writes a diff as a Word document. Removed text is red
// and struck through, added text is green and underlined. Each newline in
// the diff starts a new paragraph.
func WriteComparisonDOCX(w io.Writer, title string, segs []compare.Segment) error {
	doc := docx.New().WithDefaultTheme()
	heading(doc, title)

	para := doc.AddParagraph()
	for _, seg := range segs {
		for i, part := range strings.Split(seg.Text, "\n") {
			if i > 0 {
				para = doc.AddParagraph()
			}
			if part == "" {
				continue
			}
			run := para.AddText(part)
			preserve(run)
			switch seg.Kind {
			case compare.Removed:
				run.Color(removedColor).Strike(true)
			case compare.Added:
				run.Color(addedColor).Underline("single")
			}
		}
	}
	return write(doc, w)
}

func heading(doc *docx.Docx, title string) {
	if title == "" {
		return
	}
	doc.AddParagraph().AddText(title).Bold().Size("32")
}

// preserve keeps leading and trailing spaces of the run's text.
func preserve(run *docx.Run) {
	for _, c := range run.Children {
		if t, ok := c.(*docx.Text); ok {
			t.XMLSpace = "preserve"
		}
	}
}

func write(doc *docx.Docx, w io.Writer) error {
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
