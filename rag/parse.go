package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Parser extracts a Document from a file on disk.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to the parser registered for their type.
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
}

// NewParserManager creates a ParserManager with parsers for PDF and plain
// text files registered.
func NewParserManager() *ParserManager {
	pm := &ParserManager{
		fileTypeDetector: defaultFileTypeDetector,
		parsers:          make(map[string]Parser),
	}
	pm.parsers["pdf"] = &PDFParser{}
	pm.parsers["text"] = &TextParser{}
	return pm
}

// Parse processes a file with the parser matching its detected type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	fileType := pm.fileTypeDetector(filePath)
	parser, ok := pm.parsers[fileType]
	if !ok {
		return Document{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		GlobalLogger.Error("failed to parse document", "path", filePath, "error", err)
		return Document{}, err
	}
	GlobalLogger.Debug("parsed document", "path", filePath, "type", fileType)
	return doc, nil
}

// AddParser registers a parser for a file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

func defaultFileTypeDetector(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return "pdf"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}

// PDFParser extracts text from PDF files page by page.
type PDFParser struct{}

// Parse implements Parser for PDF files. The file path becomes the
// document's source so answers can cite it.
func (p *PDFParser) Parse(filePath string) (Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Document{}, fmt.Errorf("failed to stat file: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return Document{}, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return Document{}, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		text.WriteString(content)
		text.WriteString("\n\n")
	}

	return Document{
		Text: text.String(),
		Metadata: map[string]string{
			"file_type": "pdf",
			"source":    filePath,
		},
	}, nil
}

// TextParser reads plain text files whole.
type TextParser struct{}

// Parse implements Parser for text files.
func (p *TextParser) Parse(filePath string) (Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	return Document{
		Text: string(content),
		Metadata: map[string]string{
			"file_type": "text",
			"source":    filePath,
		},
	}, nil
}

// LoadDocumentsDir parses every supported file under dir into documents.
// Unsupported file types are skipped.
func LoadDocumentsDir(dir string) ([]Document, error) {
	pm := NewParserManager()

	var docs []Document
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || pm.fileTypeDetector(path) == "unknown" {
			return nil
		}
		doc, err := pm.Parse(path)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load documents from %s: %w", dir, err)
	}

	GlobalLogger.Info("loaded supplemental documents", "dir", dir, "documents", len(docs))
	return docs, nil
}
