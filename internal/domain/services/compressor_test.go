package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/pkg/logger"
)

type fakeCompressorMessages struct {
	count  int
	oldest []*models.Message
}

func (f *fakeCompressorMessages) ListByConversation(_ context.Context, _ uuid.UUID, _, _ int) ([]*models.Message, error) {
	return f.oldest, nil
}

func (f *fakeCompressorMessages) CountByConversation(_ context.Context, _ uuid.UUID) (int, error) {
	return f.count, nil
}

type fakeApplier struct {
	calls   int
	keep    int
	summary string
	deleted int
}

func (f *fakeApplier) ApplyCompression(_ context.Context, _ uuid.UUID, keep int, summary string) (int, error) {
	f.calls++
	f.keep = keep
	f.summary = summary
	return f.deleted, nil
}

func newTestCompressor(msgs *fakeCompressorMessages, applier *fakeApplier, gen *fakeGenerator) *Compressor {
	return NewCompressor(
		config.ChatConfig{CompressThreshold: 30, CompressKeepNewest: 10},
		msgs, applier, gen,
		logger.NewDefault(),
	)
}

func TestCompressSkipsBelowThreshold(t *testing.T) {
	applier := &fakeApplier{}
	c := newTestCompressor(&fakeCompressorMessages{count: 30}, applier, &fakeGenerator{ready: true, reply: "resumen"})

	if err := c.CompressIfNeeded(context.Background(), uuid.New()); err != nil {
		t.Fatalf("CompressIfNeeded() error = %v", err)
	}
	if applier.calls != 0 {
		t.Errorf("applier called %d times, want 0 below threshold", applier.calls)
	}
}

func TestCompressSkipsWithoutGenerator(t *testing.T) {
	applier := &fakeApplier{}
	c := newTestCompressor(&fakeCompressorMessages{count: 50}, applier, &fakeGenerator{ready: false})

	if err := c.CompressIfNeeded(context.Background(), uuid.New()); err != nil {
		t.Fatalf("CompressIfNeeded() error = %v", err)
	}
	if applier.calls != 0 {
		t.Error("history must not be trimmed when no summary can be generated")
	}
}

func TestCompressAppliesSummaryAndTrim(t *testing.T) {
	msgs := &fakeCompressorMessages{
		count: 35,
		oldest: []*models.Message{
			{Sender: models.SenderStudent, Content: "estoy agobiado con los cursos"},
			{Sender: models.SenderBot, Content: "cuéntame más"},
		},
	}
	applier := &fakeApplier{deleted: 25}
	c := newTestCompressor(msgs, applier, &fakeGenerator{ready: true, reply: "El estudiante reporta agobio académico."})

	if err := c.CompressIfNeeded(context.Background(), uuid.New()); err != nil {
		t.Fatalf("CompressIfNeeded() error = %v", err)
	}
	if applier.calls != 1 {
		t.Fatalf("applier called %d times, want 1", applier.calls)
	}
	if applier.keep != 10 {
		t.Errorf("keep = %d, want 10", applier.keep)
	}
	if applier.summary != "El estudiante reporta agobio académico." {
		t.Errorf("summary = %q", applier.summary)
	}
}

func TestCompressTruncatesLongSummary(t *testing.T) {
	msgs := &fakeCompressorMessages{
		count:  40,
		oldest: []*models.Message{{Sender: models.SenderStudent, Content: "hola"}},
	}
	applier := &fakeApplier{}
	long := strings.Repeat("á", 150)
	c := newTestCompressor(msgs, applier, &fakeGenerator{ready: true, reply: long})

	if err := c.CompressIfNeeded(context.Background(), uuid.New()); err != nil {
		t.Fatalf("CompressIfNeeded() error = %v", err)
	}
	if got := len([]rune(applier.summary)); got != 100 {
		t.Errorf("summary length = %d runes, want 100", got)
	}
}
