package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/nguyenthenguyen/docx"
	"github.com/sirupsen/logrus"
)

const (
	MimeDoc  = "application/msword"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// AllowedResumeMimeTypes are the only upload types accepted for a résumé.
var AllowedResumeMimeTypes = map[string]bool{
	MimeDoc:  true,
	MimeDocx: true,
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:br />|<w:cr/>`)
	tabTag       = regexp.MustCompile(`<w:tab/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// WordExtractor pulls plain text out of .doc and .docx uploads.
type WordExtractor struct {
	log logrus.FieldLogger
}

func NewWordExtractor(log logrus.FieldLogger) *WordExtractor {
	return &WordExtractor{log: log}
}

func (e *WordExtractor) Extract(_ context.Context, data []byte, mimeType string) (string, error) {
	var (
		text string
		err  error
	)
	switch mimeType {
	case MimeDocx:
		text, err = e.extractDocx(data)
	case MimeDoc:
		text, _, err = docconv.ConvertDoc(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("unsupported document type %q", mimeType)
	}
	if err != nil {
		return "", fmt.Errorf("failed to extract resume text: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("failed to extract resume text: document is empty")
	}
	return text, nil
}

func (e *WordExtractor) extractDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err == nil {
		defer r.Close()
		if text := docxXMLToText(r.Editable().GetContent()); text != "" {
			return text, nil
		}
	}

	e.log.WithError(err).Debug("docx reader produced no text, falling back to docconv")
	text, _, convErr := docconv.ConvertDocx(bytes.NewReader(data))
	if convErr != nil {
		return "", convErr
	}
	return text, nil
}

// docxXMLToText flattens WordprocessingML into lines of plain text.
func docxXMLToText(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = tabTag.ReplaceAllString(content, "\t")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	content = strings.Join(lines, "\n")
	content = blankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
