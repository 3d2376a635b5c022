package chunker

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize || c.overlap != DefaultChunkOverlap {
			t.Errorf("expected defaults, got size=%d overlap=%d", c.chunkSize, c.overlap)
		}
	})

	t.Run("overlap capped below size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(100))
		if c.overlap != 25 {
			t.Errorf("expected overlap 25, got %d", c.overlap)
		}
	})
}

func TestChunker_Chunk_Empty(t *testing.T) {
	chunks, err := New().Chunk(context.Background(), &domain.Document{ID: "d", Content: "   "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunker_Chunk_NilDocument(t *testing.T) {
	if _, err := New().Chunk(context.Background(), nil); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestChunker_Chunk_ShortContent(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", OwnerID: "owner-1", Content: "Short content"}

	chunks, err := New().Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "Short content" {
		t.Errorf("unexpected content %q", chunks[0].Content)
	}
	if chunks[0].DocumentID != "doc-1" || chunks[0].OwnerID != "owner-1" {
		t.Errorf("chunk not linked to document: %+v", chunks[0])
	}
	if chunks[0].ID == "" {
		t.Error("expected chunk ID")
	}
}

func TestChunker_Chunk_FallsBackToDescription(t *testing.T) {
	doc := &domain.Document{ID: "d", Description: "Snippet only"}

	chunks, err := New().Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "Snippet only" {
		t.Errorf("expected description chunk, got %+v", chunks)
	}
}

func TestChunker_Chunk_Positions(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(0))
	doc := &domain.Document{ID: "d", Content: strings.Repeat("a", 120)}

	chunks, err := c.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Position != i {
			t.Errorf("chunk %d has position %d", i, ch.Position)
		}
	}
	if len(chunks[2].Content) != 20 {
		t.Errorf("expected last chunk length 20, got %d", len(chunks[2].Content))
	}
}

func TestChunker_Chunk_Overlap(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(3))
	doc := &domain.Document{ID: "d", Content: "0123456789ABCDEFGHIJ"}

	chunks, err := c.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "0123456789" || chunks[1].Content != "789ABCDEFG" || chunks[2].Content != "EFGHIJ" {
		t.Errorf("unexpected chunks: %q %q %q", chunks[0].Content, chunks[1].Content, chunks[2].Content)
	}
}

func TestChunker_Chunk_PrefersParagraphBreak(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(0))
	content := "First paragraph is here.\n\nSecond paragraph follows on."

	chunks, err := c.Chunk(context.Background(), &domain.Document{ID: "d", Content: content})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "First paragraph is here." {
		t.Errorf("unexpected first chunk %q", chunks[0].Content)
	}
	if chunks[1].Content != "Second paragraph follows on." {
		t.Errorf("unexpected second chunk %q", chunks[1].Content)
	}
}

func TestChunker_Chunk_KeepsRunesIntact(t *testing.T) {
	c := New(WithChunkSize(7), WithOverlap(2))
	doc := &domain.Document{ID: "d", Content: strings.Repeat("日本語", 10)}

	chunks, err := c.Chunk(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, ch := range chunks {
		if !utf8.ValidString(ch.Content) {
			t.Fatalf("chunk split a rune: %q", ch.Content)
		}
		if n := utf8.RuneCountInString(ch.Content); n > 7 {
			t.Errorf("chunk longer than size: %d runes", n)
		}
	}
}
