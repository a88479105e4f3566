package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/OvidioVidal/INTELLIGENCE-TOOL/internal/digest"
	"golang.org/x/net/html"
)

// HTMLParser flattens an HTML email body into text lines and hands them
// to the line parser. Block elements and <br> become line breaks;
// script and style content is skipped.
type HTMLParser struct {
	text *TextParser
}

func NewHTMLParser(sections []string) *HTMLParser {
	return &HTMLParser{text: NewTextParser(sections)}
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "td": true,
	"table": true, "ul": true, "ol": true, "blockquote": true,
	"section": true, "article": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func (p *HTMLParser) Parse(r io.Reader) (*digest.Report, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return p.text.ParseLines(flattenHTML(doc)), nil
}

// flattenHTML walks the document and emits one text line per visual line.
func flattenHTML(doc *html.Node) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			// Collapse intra-text newlines; line structure comes from markup.
			text := strings.ReplaceAll(n.Data, "\n", " ")
			text = strings.ReplaceAll(text, "\r", " ")
			current.WriteString(text)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "nav", "footer":
				return
			case "br":
				flush()
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}

	body := findBody(doc)
	if body == nil {
		body = doc
	}
	walk(body)
	flush()

	// Trim the whitespace the markup collapse leaves behind.
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(ln)
	}
	return lines
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
