package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func documentText(ext, name string, data []byte) (string, error) {
	switch ext {
	case "docx":
		return docxText(data)
	case "pptx":
		return pptxText(data)
	default:
		return fmt.Sprintf("[PDF document %s, %s. Text extraction is not available for PDF files.]",
			name, units.HumanSize(float64(len(data)))), nil
	}
}

func docxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			return partText(f)
		}
	}
	return "", fmt.Errorf("docx has no word/document.xml")
}

func pptxText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pptx: %w", err)
	}

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range reader.File {
		if m := slidePart.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{number: n, file: f})
		}
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("pptx has no slides")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var b strings.Builder
	for _, s := range slides {
		text, err := partText(s.file)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.number, err)
		}
		fmt.Fprintf(&b, "## Slide %d\n\n%s\n\n", s.number, text)
	}
	return strings.TrimSpace(b.String()), nil
}

func partText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return xmlText(io.LimitReader(rc, MaxArchiveEntrySize*8))
}

// xmlText collects the character data of <t> runs (w:t in Word, a:t in
// PowerPoint) and ends a line at each closing paragraph.
func xmlText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), nil
}
