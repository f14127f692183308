// Package extract pulls plain text out of uploaded CV documents.
package extract

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"skillgap/internal/errors"
)

// Supported extensions
const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
)

// UnsupportedMessage is shown when a file is neither PDF nor DOCX.
const UnsupportedMessage = "Unsupported file type. Please upload .pdf or .docx."

// Supported reports whether name has an extension ExtractText understands.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtPDF, ExtDOCX:
		return true
	}
	return false
}

// ExtractText dispatches on the file name's extension.
func ExtractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ExtPDF:
		return pdfText(data)
	case ExtDOCX:
		return docxText(data)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFileType, UnsupportedMessage, nil).
			WithContext("file", filepath.Base(name))
	}
}

// pdfText joins the non-empty page texts with newlines.
func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to read pdf", err)
	}

	var parts []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeExtractionFailed,
				fmt.Sprintf("failed to read pdf page %d", i), err)
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to parse docx", err)
	}
	defer doc.Close()

	text, err := documentXMLText(doc.Editable().GetContent())
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExtractionFailed, "failed to read docx body", err)
	}
	return text, nil
}

// documentXMLText converts WordprocessingML to one line per non-empty paragraph.
func documentXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	flush()
	return strings.Join(paragraphs, "\n"), nil
}
