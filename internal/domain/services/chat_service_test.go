package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"crea-bienestar/internal/config"
	"crea-bienestar/internal/domain/models"
	"crea-bienestar/internal/domain/services/ai"
	"crea-bienestar/internal/domain/services/risk"
	"crea-bienestar/pkg/logger"
)

type fakeConversationStore struct {
	byID map[uuid.UUID]*models.Conversation
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{byID: make(map[uuid.UUID]*models.Conversation)}
}

func (f *fakeConversationStore) Create(_ context.Context, c *models.Conversation) (*models.Conversation, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CurrentLevel == "" {
		c.CurrentLevel = models.RiskLow
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeConversationStore) GetByID(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	return f.byID[id], nil
}

func (f *fakeConversationStore) ListByStudent(_ context.Context, studentID uuid.UUID, _, _ int) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range f.byID {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversationStore) UpdateRisk(_ context.Context, id uuid.UUID, score int, level models.RiskLevel) error {
	c, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	c.CurrentScore = score
	c.CurrentLevel = level
	return nil
}

func (f *fakeConversationStore) Close(_ context.Context, id uuid.UUID) error {
	c, ok := f.byID[id]
	if !ok {
		return fmt.Errorf("conversation not found")
	}
	now := c.UpdatedAt
	c.ClosedAt = &now
	return nil
}

type fakeMessageStore struct {
	messages []*models.Message
}

func (f *fakeMessageStore) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeMessageStore) ListByConversation(_ context.Context, conversationID uuid.UUID, _, _ int) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListRecent(ctx context.Context, conversationID uuid.UUID, n int) ([]*models.Message, error) {
	all, _ := f.ListByConversation(ctx, conversationID, 0, 0)
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (f *fakeMessageStore) CountByConversation(ctx context.Context, conversationID uuid.UUID) (int, error) {
	all, _ := f.ListByConversation(ctx, conversationID, 0, 0)
	return len(all), nil
}

type fakeScoreHistory struct {
	scores map[string][]int
}

func newFakeScoreHistory() *fakeScoreHistory {
	return &fakeScoreHistory{scores: make(map[string][]int)}
}

func (f *fakeScoreHistory) PushScore(_ context.Context, conversationID string, score, maxLen int) error {
	f.scores[conversationID] = append(f.scores[conversationID], score)
	if maxLen > 0 && len(f.scores[conversationID]) > maxLen {
		f.scores[conversationID] = f.scores[conversationID][len(f.scores[conversationID])-maxLen:]
	}
	return nil
}

func (f *fakeScoreHistory) ScoreHistory(_ context.Context, conversationID string) ([]int, error) {
	return f.scores[conversationID], nil
}

type fakeEscalator struct {
	calls   int
	created *models.Alert
}

func (f *fakeEscalator) EscalateIfNeeded(_ context.Context, conv *models.Conversation, analysis *models.RiskAnalysis) (*models.Alert, error) {
	f.calls++
	if !analysis.RequiresEscalation {
		return nil, nil
	}
	f.created = &models.Alert{
		ID:             uuid.New(),
		StudentID:      conv.StudentID,
		ConversationID: conv.ID,
		Status:         models.AlertPending,
		Level:          analysis.Level,
		Score:          analysis.Score,
	}
	return f.created, nil
}

type fakeGenerator struct {
	ready bool
	reply string
	err   error
}

func (f *fakeGenerator) Ready() bool { return f.ready }

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []ai.Turn) (string, error) {
	return f.reply, f.err
}

func newTestChatService(gen ai.Generator, esc Escalator) (*ChatService, *fakeConversationStore, *fakeMessageStore) {
	convs := newFakeConversationStore()
	msgs := &fakeMessageStore{}
	svc := NewChatService(
		config.ChatConfig{HistoryLimit: 20, ScoreHistoryLimit: 50},
		convs, msgs, newFakeScoreHistory(),
		risk.NewAnalyzer(logger.NewDefault()),
		gen, esc, nil,
		logger.NewDefault(),
	)
	return svc, convs, msgs
}

func TestStartConversation(t *testing.T) {
	svc, _, msgs := newTestChatService(&fakeGenerator{}, &fakeEscalator{})

	conv, welcome, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("StartConversation() error = %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Error("conversation ID not assigned")
	}
	if welcome.Sender != models.SenderBot {
		t.Errorf("welcome sender = %s, want bot", welcome.Sender)
	}
	if len(msgs.messages) != 1 {
		t.Errorf("stored %d messages, want 1", len(msgs.messages))
	}
}

func TestSendMessageMildTurn(t *testing.T) {
	esc := &fakeEscalator{}
	svc, _, msgs := newTestChatService(&fakeGenerator{ready: true, reply: "Cuéntame más sobre eso."}, esc)

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	turn, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "Estoy un poco estresado con los exámenes")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if turn.AlertCreated {
		t.Error("mild message must not create an alert")
	}
	if turn.Reply.Content != "Cuéntame más sobre eso." {
		t.Errorf("reply = %q", turn.Reply.Content)
	}
	if esc.calls != 1 {
		t.Errorf("escalator called %d times, want 1", esc.calls)
	}

	// welcome + student + bot reply
	if len(msgs.messages) != 3 {
		t.Fatalf("stored %d messages, want 3", len(msgs.messages))
	}
	student := msgs.messages[1]
	if student.Sender != models.SenderStudent {
		t.Errorf("second message sender = %s, want student", student.Sender)
	}
	if student.RiskScore != turn.Analysis.Score {
		t.Errorf("stored risk score %d != analysis score %d", student.RiskScore, turn.Analysis.Score)
	}
}

func TestSendMessageCrisisCreatesAlert(t *testing.T) {
	esc := &fakeEscalator{}
	svc, convs, _ := newTestChatService(&fakeGenerator{ready: true, reply: "Estoy aquí contigo."}, esc)

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	turn, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "Me siento muy triste y no quiero vivir más")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if !turn.AlertCreated {
		t.Fatal("crisis message must create an alert")
	}
	if turn.AlertID == nil || *turn.AlertID != esc.created.ID {
		t.Error("turn does not reference the created alert")
	}

	stored := convs.byID[conv.ID]
	if stored.CurrentScore != turn.Analysis.Score {
		t.Errorf("conversation score %d, want %d for single-message conversation", stored.CurrentScore, turn.Analysis.Score)
	}
}

func TestSendMessageFallbackWithoutGenerator(t *testing.T) {
	svc, _, _ := newTestChatService(&fakeGenerator{ready: false}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	turn, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "hola")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if turn.Reply.Content != ai.FollowUpForLevel(turn.Analysis.Level) {
		t.Errorf("expected canned follow-up for level %s", turn.Analysis.Level)
	}
}

func TestSendMessageFallbackOnGenerationError(t *testing.T) {
	svc, _, _ := newTestChatService(&fakeGenerator{ready: true, err: fmt.Errorf("quota exceeded")}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	turn, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "hola")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if turn.Reply.Content != ai.FallbackReply {
		t.Errorf("reply = %q, want fallback", turn.Reply.Content)
	}
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc, _, _ := newTestChatService(&fakeGenerator{}, &fakeEscalator{})

	if _, err := svc.SendMessage(context.Background(), uuid.New(), uuid.Nil, "hola"); err == nil {
		t.Error("expected error for unknown conversation")
	}
}

func TestSendMessageEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestChatService(&fakeGenerator{}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.SendMessage(context.Background(), conv.ID, uuid.New(), "hola")
	if !errors.Is(err, ErrNotConversationOwner) {
		t.Errorf("error = %v, want ErrNotConversationOwner", err)
	}

	if _, err := svc.SendMessage(context.Background(), conv.ID, conv.StudentID, "hola"); err != nil {
		t.Errorf("owner should be allowed: %v", err)
	}
}

func TestListMessagesEnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestChatService(&fakeGenerator{}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ListMessages(context.Background(), conv.ID, uuid.New(), 0, 0); !errors.Is(err, ErrNotConversationOwner) {
		t.Errorf("error = %v, want ErrNotConversationOwner", err)
	}

	msgs, err := svc.ListMessages(context.Background(), conv.ID, conv.StudentID, 0, 0)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("len(msgs) = %d, want 1 (welcome)", len(msgs))
	}
}

func TestConversationCarriesLatestScore(t *testing.T) {
	svc, convs, _ := newTestChatService(&fakeGenerator{ready: true, reply: "ok"}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	first, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "hola, todo bien por ahora, solo saludaba un momento")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "estoy agotado y agobiado, no entiendo nada de los cursos")
	if err != nil {
		t.Fatal(err)
	}

	// Last write wins on the entity
	if got := convs.byID[conv.ID].CurrentScore; got != second.Analysis.Score {
		t.Errorf("conversation score = %d, want latest message score %d", got, second.Analysis.Score)
	}
	// The weighted trail aggregate travels on the turn instead
	want := risk.AggregateConversationScore([]int{first.Analysis.Score, second.Analysis.Score})
	if second.TrendScore != want {
		t.Errorf("trend score = %d, want %d", second.TrendScore, want)
	}
}

func TestCrisisLevelReachesConversationAfterCalmTurns(t *testing.T) {
	svc, convs, _ := newTestChatService(&fakeGenerator{ready: true, reply: "ok"}, &fakeEscalator{})

	conv, _, err := svc.StartConversation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}

	for _, calm := range []string{
		"hola, todo tranquilo por aquí",
		"hoy fue un día normal en clases",
	} {
		if _, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, calm); err != nil {
			t.Fatal(err)
		}
	}

	crisis, err := svc.SendMessage(context.Background(), conv.ID, uuid.Nil, "Me siento muy triste y no quiero vivir más")
	if err != nil {
		t.Fatal(err)
	}
	if crisis.Analysis.Level != models.RiskHigh && crisis.Analysis.Level != models.RiskCritical {
		t.Fatalf("test premise broken, crisis message analyzed as %s", crisis.Analysis.Level)
	}

	stored := convs.byID[conv.ID]
	if stored.CurrentLevel != crisis.Analysis.Level {
		t.Errorf("conversation level = %s, want %s from the crisis message", stored.CurrentLevel, crisis.Analysis.Level)
	}
	if stored.CurrentScore != crisis.Analysis.Score {
		t.Errorf("conversation score = %d, want %d", stored.CurrentScore, crisis.Analysis.Score)
	}
}
