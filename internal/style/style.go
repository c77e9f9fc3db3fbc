// Package style loads the optional STYLE.md document: a free-form
// voice contract plus optional per-platform prompt templates. Missing
// or unreadable files fall back to built-in defaults; the pipeline
// never requires the document to exist.
package style

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/Alksalt/llm-social-agent/internal/diary"
)

// BuiltinContract is the fallback voice contract.
const BuiltinContract = "Write concise, clear, first-person social posts. Avoid hype, avoid claims you cannot support, " +
	"and keep practical value high."

// builtinTemplates are the fallback per-platform prompt templates.
// Placeholders: {entry_text}, {summary}, {strict_rules}.
var builtinTemplates = map[diary.Platform]string{
	diary.PlatformX: "Transform this diary entry into one X post. Keep it punchy and under the platform limit.\n" +
		"Diary:\n{entry_text}\n\nSummary:\n{summary}\n\nConstraints:\n{strict_rules}",
	diary.PlatformThreads: "Transform this diary entry into one Threads post. Keep it conversational and concrete.\n" +
		"Diary:\n{entry_text}\n\nSummary:\n{summary}\n\nConstraints:\n{strict_rules}",
	diary.PlatformLinkedIn: "Transform this diary entry into one LinkedIn post with practical takeaways.\n" +
		"Diary:\n{entry_text}\n\nSummary:\n{summary}\n\nConstraints:\n{strict_rules}",
}

// Style is the resolved style contract and templates.
type Style struct {
	Exists    bool
	Contract  string
	Templates map[diary.Platform]string
}

// Template returns the prompt template for a platform.
func (s *Style) Template(platform diary.Platform) string {
	if tpl, ok := s.Templates[platform]; ok && tpl != "" {
		return tpl
	}
	return builtinTemplates[platform]
}

// Default returns the built-in style with no external document.
func Default() *Style {
	templates := make(map[diary.Platform]string, len(builtinTemplates))
	for p, tpl := range builtinTemplates {
		templates[p] = tpl
	}
	return &Style{
		Exists:    false,
		Contract:  BuiltinContract,
		Templates: templates,
	}
}

// Load reads the style document at path. A "Style Contract" heading
// section overrides the contract (otherwise the whole document is the
// contract); headings containing "template" and a platform name
// override that platform's template.
func Load(path string, logger *slog.Logger) *Style {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Debug("style document unreadable, using built-ins", "path", path, "error", err)
		}
		return Default()
	}

	s := Default()
	s.Exists = true

	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" {
		s.Contract = trimmed
	}

	sections := ParseSections(data)
	for title, body := range sections {
		if body == "" {
			continue
		}
		if strings.Contains(title, "style contract") {
			s.Contract = body
			continue
		}
		if !strings.Contains(title, "template") {
			continue
		}
		for _, platform := range diary.Platforms {
			if strings.Contains(title, string(platform)) {
				s.Templates[platform] = body
				break
			}
		}
	}

	return s
}

// ParseSections splits a markdown document into heading-titled
// sections. Titles are lowercased; bodies are the raw source lines
// under each heading, trimmed.
func ParseSections(source []byte) map[string]string {
	doc := goldmark.New().Parser().Parse(gtext.NewReader(source))

	sections := make(map[string]string)
	current := ""
	var body strings.Builder

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok {
			flush()
			current = strings.ToLower(strings.TrimSpace(inlineText(heading, source)))
			continue
		}
		if current == "" {
			continue
		}
		writeBlockLines(&body, n, source)
	}
	flush()

	return sections
}

// inlineText concatenates the text content of a node's inline children.
func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		sb.WriteString(inlineText(c, source))
	}
	return sb.String()
}

// writeBlockLines appends a block node's raw source lines, recursing
// into containers (lists, quotes) that carry no lines themselves.
func writeBlockLines(sb *strings.Builder, n ast.Node, source []byte) {
	lines := n.Lines()
	if lines.Len() > 0 {
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}
		sb.WriteString("\n")
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeBlockLines(sb, c, source)
	}
}
