package models

import (
	"time"

	"github.com/google/uuid"
)

// Sender identifies who produced a chat message
type Sender string

const (
	SenderStudent Sender = "student"
	SenderBot     Sender = "bot"
)

// Conversation is a chat thread between one student and the bot.
// CurrentScore and CurrentLevel carry the risk reading of the most
// recently analyzed student message, last-write-wins.
type Conversation struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	StudentID    uuid.UUID  `json:"student_id" db:"student_id"`
	Title        string     `json:"title,omitempty" db:"title"`
	CurrentScore int        `json:"current_score" db:"current_score"`
	CurrentLevel RiskLevel  `json:"current_level" db:"current_level"`
	MessageCount int        `json:"message_count" db:"message_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// Message is a single turn in a conversation. Student messages carry
// the risk snapshot computed when they were received; bot messages
// leave those fields zero.
type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	Sender         Sender    `json:"sender" db:"sender"`
	Content        string    `json:"content" db:"content"`
	RiskScore      int       `json:"risk_score" db:"risk_score"`
	RiskLevel      RiskLevel `json:"risk_level,omitempty" db:"risk_level"`
	SentimentScore int       `json:"sentiment_score" db:"sentiment_score"`
	MatchedTerms   []string  `json:"matched_terms,omitempty" db:"matched_terms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ChatTurn is what the chat endpoint returns for one student message.
// TrendScore is the recency-weighted average over the conversation's
// score trail; the conversation entity itself carries the latest
// per-message score.
type ChatTurn struct {
	Conversation *Conversation `json:"conversation"`
	Reply        *Message      `json:"reply"`
	Analysis     *RiskAnalysis `json:"analysis"`
	TrendScore   int           `json:"trend_score"`
	AlertCreated bool          `json:"alert_created"`
	AlertID      *uuid.UUID    `json:"alert_id,omitempty"`
}
