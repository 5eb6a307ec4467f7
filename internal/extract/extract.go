// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"math"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"rsc.io/pdf"

	"github.com/localrivet/docsummary/internal/errortypes"
)

// Supported content types
const (
	TypePlain = "text/plain"
	TypePDF   = "application/pdf"
	TypeHTML  = "text/html"

	TypeOctetStream = "application/octet-stream"
)

var allowed = map[string]bool{
	TypePlain: true,
	TypePDF:   true,
	TypeHTML:  true,
}

var extensions = map[string]string{
	".txt":  TypePlain,
	".text": TypePlain,
	".md":   TypePlain,
	".pdf":  TypePDF,
	".html": TypeHTML,
	".htm":  TypeHTML,
}

// Allowed reports whether documents of contentType can be stored and summarized.
func Allowed(contentType string) bool {
	return allowed[normalize(contentType)]
}

// DetectContentType picks the content type of an uploaded file. A declared
// type is trusted when it is supported; otherwise the file extension decides.
func DetectContentType(filename, declared string) string {
	if ct := normalize(declared); allowed[ct] {
		return ct
	}
	if ct, ok := extensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	if ct := normalize(declared); ct != "" {
		return ct
	}
	return TypeOctetStream
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// Text extracts the text of a document.
func Text(contentType string, data []byte) (string, error) {
	switch ct := normalize(contentType); ct {
	case TypePlain:
		if !utf8.Valid(data) {
			return "", errortypes.ValidationError(nil, "text document is not valid UTF-8")
		}
		return string(data), nil
	case TypePDF:
		return PDFText(data)
	case TypeHTML:
		return HTMLText(data)
	default:
		return "", errortypes.UnsupportedError(nil, fmt.Sprintf("cannot extract text from %q", ct)).
			WithField("content_type", ct)
	}
}

// PDFText returns the text of every page in order. Text runs on the same
// baseline are joined; a change of baseline starts a new line.
func PDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errortypes.ValidationError(fmt.Errorf("%v", r), "malformed PDF")
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errortypes.ValidationError(err, "failed to open PDF")
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		if content := strings.TrimSpace(pageText(page.Content().Text)); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

func pageText(runs []pdf.Text) string {
	var b strings.Builder
	for i, run := range runs {
		if i > 0 {
			prev := runs[i-1]
			switch {
			case math.Abs(run.Y-prev.Y) > prev.FontSize/2:
				b.WriteByte('\n')
			case run.X-(prev.X+prev.W) > prev.FontSize*0.15 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(run.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(run.S)
	}
	return b.String()
}

// block elements whose text is put on its own line
const blockSelector = "p, h1, h2, h3, h4, h5, h6, li, pre, blockquote, td, th, dt, dd, figcaption"

// HTMLText returns the readable text of an HTML document, one block per line.
func HTMLText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", errortypes.ValidationError(err, "failed to parse HTML")
	}

	doc.Find("script, style, noscript, template, head").Remove()

	var lines []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if line := collapseSpace(ownText(s)); line != "" {
			lines = append(lines, line)
		}
	})

	if len(lines) == 0 {
		if body := collapseSpace(doc.Find("body").Text()); body != "" {
			lines = append(lines, body)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// ownText returns the text of s without the text of nested blocks, which
// are visited on their own.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch {
		case goquery.NodeName(c) == "#text":
			b.WriteString(c.Text())
		case c.Is(blockSelector):
			b.WriteString(" ")
		default:
			b.WriteString(ownText(c))
		}
	})
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
