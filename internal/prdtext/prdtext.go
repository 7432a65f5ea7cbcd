// Package prdtext normalizes a requirements document into plain text.
// Markdown and plain text pass through; HTML is stripped to text; PDFs are
// extracted page by page.
package prdtext

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pdfx "github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// Normalize reads the document at path and returns its plain-text content.
func Normalize(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return fromPDF(path)
	case ".html", ".htm":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return FromHTML(string(b))
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return compactWhitespace(string(b)), nil
	}
}

// FromHTML strips markup and returns the visible text.
func FromHTML(doc string) (string, error) {
	node, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	extractText(node, &b, false)
	return compactWhitespace(b.String()), nil
}

func extractText(n *html.Node, b *strings.Builder, inHidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			inHidden = true
		case "br", "p", "div", "li", "tr", "h1", "h2", "h3", "h4":
			b.WriteString("\n")
		}
	}
	if !inHidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b, inHidden)
	}
}

func fromPDF(path string) (string, error) {
	f, r, err := pdfx.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out strings.Builder
	for page := 1; page <= r.NumPage(); page++ {
		p := r.Page(page)
		txt, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(txt); t != "" {
			out.WriteString(t)
			out.WriteString("\n\n")
		}
	}
	return compactWhitespace(out.String()), nil
}

// compactWhitespace collapses runs of spaces and drops empty lines.
func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	lines := strings.Split(s, "\n")
	var out []string
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
