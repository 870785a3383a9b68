package markdown

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/skobelevs/policy-qa/internal/core/domain"
	"github.com/skobelevs/policy-qa/internal/core/ports"
)

// Extractor parses markdown policy documents: an optional YAML front matter
// block followed by heading-delimited sections. Section paths record the
// heading trail so chunk metadata can point back into the document.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

type frontMatter struct {
	DocID       string   `yaml:"doc_id"`
	Title       string   `yaml:"title"`
	Category    string   `yaml:"category"`
	Version     string   `yaml:"version"`
	LastUpdated string   `yaml:"last_updated"`
	AppliesTo   []string `yaml:"applies_to"`
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedDocument, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return domain.ExtractedDocument{}, fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return domain.ExtractedDocument{}, fmt.Errorf("not valid utf-8: %s", doc.Filename)
	}

	fm, body, err := splitFrontMatter(string(raw))
	if err != nil {
		return domain.ExtractedDocument{}, err
	}

	meta := domain.PolicyMeta{
		DocID:       fm.DocID,
		Title:       fm.Title,
		Category:    fm.Category,
		Version:     fm.Version,
		LastUpdated: fm.LastUpdated,
		AppliesTo:   fm.AppliesTo,
	}
	if meta.DocID == "" {
		meta.DocID = filenameStem(doc.Filename)
	}
	if meta.Title == "" {
		meta.Title = meta.DocID
	}

	return domain.ExtractedDocument{
		Meta:     meta,
		Sections: splitSections(body, meta.Title),
	}, nil
}

func splitFrontMatter(text string) (frontMatter, string, error) {
	var fm frontMatter

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return fm, normalized, nil
	}

	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, normalized, nil
	}

	block := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return frontMatter{}, "", fmt.Errorf("parse front matter: %w", err)
	}
	return fm, body, nil
}

type headingFrame struct {
	level int
	title string
}

// splitSections walks the heading hierarchy with a stack so nested headings
// produce paths like [Refund Policy, Eligibility]. Text before the first
// heading lands in a root section named after the document.
func splitSections(body, rootTitle string) []domain.Section {
	if rootTitle == "" {
		rootTitle = "(root)"
	}

	var sections []domain.Section
	var stack []headingFrame
	var buf []string

	currentPath := func() []string {
		if len(stack) == 0 {
			return []string{rootTitle}
		}
		path := make([]string, len(stack))
		for i, frame := range stack {
			path[i] = frame.title
		}
		return path
	}

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		sections = append(sections, domain.Section{Path: currentPath(), Text: text})
	}

	for _, line := range strings.Split(body, "\n") {
		level, title, ok := parseHeading(line)
		if !ok {
			buf = append(buf, line)
			continue
		}
		flush()
		for len(stack) > 0 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, headingFrame{level: level, title: title})
	}
	flush()

	return sections
}

func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return 0, "", false
	}
	title := strings.TrimSpace(trimmed[level+1:])
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func filenameStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
