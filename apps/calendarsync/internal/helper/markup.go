package helper

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripMarkup removes HTML tags from s, keeping the text content.
// Line-breaking elements become newlines and entities are decoded.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return cleanLines(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			if breaksLine(atom.Lookup(name)) {
				sb.WriteByte('\n')
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

func breaksLine(a atom.Atom) bool {
	switch a {
	case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr:
		return true
	default:
		return false
	}
}

func cleanLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
