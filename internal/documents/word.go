// File: internal/documents/word.go
package documents

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

const wordBodyPart = "word/document.xml"

// readWord extracts stories from a .docx file. Stories are runs of
// non-empty paragraphs separated by empty ones: the first line is the title,
// the second the description and the remaining lines the acceptance criteria.
func readWord(data []byte) ([]schemas.UserStory, error) {
	body, err := wordBody(data)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, invalid("failed to parse %s: %v", wordBodyPart, err)
	}

	var (
		stories []schemas.UserStory
		current []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		stories = append(stories, storyFromLines(len(stories)+1, current))
		current = nil
	}

	for _, p := range doc.FindElements("//w:p") {
		text := paragraphText(p)
		if strings.TrimSpace(text) == "" {
			flush()
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				current = append(current, line)
			}
		}
	}
	flush()
	return stories, nil
}

func wordBody(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, invalid("not a Word document: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != wordBodyPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, invalid("failed to open %s: %v", wordBodyPart, err)
		}
		defer rc.Close()
		body, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", wordBodyPart, err)
		}
		return body, nil
	}
	return nil, invalid("Word document has no %s part", wordBodyPart)
}

// paragraphText concatenates the runs of a w:p element. Tabs and breaks are
// kept so that soft line breaks split lines like hard ones.
func paragraphText(el *etree.Element) string {
	var b strings.Builder
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, child := range e.ChildElements() {
			switch child.Tag {
			case "t":
				b.WriteString(child.Text())
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			default:
				walk(child)
			}
		}
	}
	walk(el)
	return b.String()
}

func storyFromLines(n int, lines []string) schemas.UserStory {
	story := schemas.UserStory{
		ID:       fmt.Sprintf("US%d", n),
		Priority: extractPriority(strings.Join(lines, "\n")),
	}
	if len(lines) > 0 {
		story.Title = lines[0]
	}
	if len(lines) > 1 {
		story.Description = lines[1]
	}
	if len(lines) > 2 {
		story.AcceptanceCriteria = strings.Join(lines[2:], "\n")
	}
	return story
}
