// Package export renders stored notes as Word documents.
package export

import (
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"voicenote/internal/store"
)

const (
	fontName  = "Calibri"
	fontSize  = 11
	titleSize = 16
	headSize  = 13
)

// WriteDocx writes n to path as a .docx file: title, timestamp, summary,
// to-do bullets and tags.
func WriteDocx(n store.Note, path string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("new document: %w", err)
	}

	addRun(doc.AddParagraph(""), Title(n), true, titleSize)
	addRun(doc.AddParagraph(""), "Recorded "+n.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), false, fontSize)

	addRun(doc.AddParagraph(""), "Summary", true, headSize)
	for _, line := range strings.Split(n.Summary, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			addRun(doc.AddParagraph(""), line, false, fontSize)
		}
	}

	addRun(doc.AddParagraph(""), "To-dos", true, headSize)
	for _, todo := range n.Todos {
		addRun(doc.AddParagraph(""), "• "+strings.TrimLeft(todo, "-*• "), false, fontSize)
	}

	if len(n.Tags) > 0 {
		p := doc.AddParagraph("")
		addRun(p, "Tags: ", true, fontSize)
		addRun(p, strings.Join(n.Tags, ", "), false, fontSize)
	}

	addRun(doc.AddParagraph(""), "Transcript", true, headSize)
	addRun(doc.AddParagraph(""), n.Text, false, fontSize)

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Title is the first few words of the summary's first line, or of the text
// when the summary is blank.
func Title(n store.Note) string {
	src := strings.TrimSpace(n.Summary)
	if src == "" {
		src = strings.TrimSpace(n.Text)
	}
	if i := strings.IndexByte(src, '\n'); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimLeft(src, "-*• ")
	words := strings.Fields(src)
	if len(words) == 0 {
		return "Voice note " + n.ID
	}
	if len(words) > 8 {
		return strings.Join(words[:8], " ") + "..."
	}
	return strings.Join(words, " ")
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
