package markdown

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/skobelevs/policy-qa/internal/core/domain"
)

type mapStorage map[string][]byte

func (m mapStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m[key] = raw
	return nil
}

func (m mapStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m[key])), nil
}

const refundPolicy = `---
doc_id: refund-policy
title: Refund Policy
category: billing
applies_to: [Pro, Team]
version: "1.2"
last_updated: "2026-01-15"
---
# Refund Policy

Intro paragraph.

## Eligibility

- Eligible for refund within 14 days of purchase.

## Process

Open a billing ticket.
`

func extract(t *testing.T, content string) domain.ExtractedDocument {
	t.Helper()
	storage := mapStorage{"refund-policy.md": []byte(content)}
	doc := &domain.Document{Filename: "refund-policy.md", StoragePath: "refund-policy.md"}

	out, err := NewExtractor(storage).Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	return out
}

func TestExtractParsesFrontMatter(t *testing.T) {
	out := extract(t, refundPolicy)

	meta := out.Meta
	if meta.DocID != "refund-policy" || meta.Title != "Refund Policy" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if meta.Category != "billing" || meta.Version != "1.2" || meta.LastUpdated != "2026-01-15" {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if len(meta.AppliesTo) != 2 || meta.AppliesTo[0] != "Pro" || meta.AppliesTo[1] != "Team" {
		t.Fatalf("unexpected applies_to %v", meta.AppliesTo)
	}
}

func TestExtractBuildsHeadingPaths(t *testing.T) {
	out := extract(t, refundPolicy)

	if len(out.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d: %+v", len(out.Sections), out.Sections)
	}

	first := out.Sections[0]
	if len(first.Path) != 1 || first.Path[0] != "Refund Policy" {
		t.Fatalf("unexpected first path %v", first.Path)
	}
	if first.Text != "Intro paragraph." {
		t.Fatalf("unexpected first text %q", first.Text)
	}

	second := out.Sections[1]
	if len(second.Path) != 2 || second.Path[0] != "Refund Policy" || second.Path[1] != "Eligibility" {
		t.Fatalf("unexpected second path %v", second.Path)
	}

	third := out.Sections[2]
	if len(third.Path) != 2 || third.Path[1] != "Process" {
		t.Fatalf("unexpected third path %v", third.Path)
	}
}

func TestExtractSiblingHeadingReplacesStackTop(t *testing.T) {
	out := extract(t, "## A\n\naaa\n\n## B\n\nbbb\n")

	if len(out.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", out.Sections)
	}
	if out.Sections[1].Path[len(out.Sections[1].Path)-1] != "B" {
		t.Fatalf("sibling heading did not replace stack top: %v", out.Sections[1].Path)
	}
}

func TestExtractWithoutFrontMatterFallsBackToFilename(t *testing.T) {
	out := extract(t, "Just some text, no headings.")

	if out.Meta.DocID != "refund-policy" {
		t.Fatalf("expected filename stem doc id, got %q", out.Meta.DocID)
	}
	if len(out.Sections) != 1 || out.Sections[0].Path[0] != "refund-policy" {
		t.Fatalf("expected single root section, got %+v", out.Sections)
	}
}

func TestExtractMalformedFrontMatterFails(t *testing.T) {
	storage := mapStorage{"bad.md": []byte("---\n\t: broken [\n---\nbody\n")}
	doc := &domain.Document{Filename: "bad.md", StoragePath: "bad.md"}

	if _, err := NewExtractor(storage).Extract(context.Background(), doc); err == nil {
		t.Fatalf("expected front matter parse error")
	}
}
