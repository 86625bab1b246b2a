// Package extract turns a downloaded document into per-page text. It is
// the local implementation of the text-extraction collaborator; the
// pipeline only sees pages and does not care how they were produced.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"github.com/avsthiago/e2e-serverless-rag/internal/models"
)

// Page is one unit of extracted document text. Formats without a page
// concept (docx, txt, md) produce a single page; spreadsheets produce one
// page per sheet.
type Page struct {
	Number int
	Text   string
}

// Recognized reports whether ext (including the dot, any case) maps to a
// supported document format.
func Recognized(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".ods", ".txt", ".md":
		return true
	}
	return false
}

// ExtractPages dispatches on the file extension. Unrecognized extensions
// fail with models.ErrUnsupportedFormat.
func ExtractPages(path string) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".xlsx":
		return extractXLSX(path)
	case ".ods":
		return extractODS(path)
	case ".txt":
		return extractText(path)
	case ".md":
		return extractMarkdown(path)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, ext)
	}
}

func extractPDF(path string) ([]Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}

	numPages := reader.NumPage()
	pages := make([]Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		text, err := reader.Page(i).GetPlainText(nil)
		if err != nil {
			// A broken page degrades to an empty one; siblings still
			// ingest.
			log.Warn().Err(err).Int("page", i).Str("file", filepath.Base(path)).Msg("Page extraction failed, skipping")
			text = ""
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}

func extractDOCX(path string) ([]Page, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return []Page{{Number: 1, Text: stripXMLTags(content)}}, nil
}

func extractXLSX(path string) ([]Page, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}

	var pages []Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func extractODS(path string) ([]Page, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	defer f.Close()

	var pages []Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			log.Warn().Err(err).Str("sheet", sheetName).Msg("Sheet extraction failed, skipping")
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, Page{Number: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func extractText(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	return []Page{{Number: 1, Text: string(data)}}, nil
}

func extractMarkdown(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	text, err := markdownToText(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrOcrFailed, err)
	}
	return []Page{{Number: 1, Text: text}}, nil
}

// stripXMLTags drops any markup the docx reader leaves in the paragraph
// content.
func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
