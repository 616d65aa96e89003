package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"crea-bienestar/internal/config"
	"crea-bienestar/pkg/logger"
)

// Role identifies who produced a turn in the generation history
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange passed to the model as context
type Turn struct {
	Role Role
	Text string
}

// Generator produces a chat reply from a message and prior turns.
// Implemented by Client; the chat service depends on this interface
// so tests can swap in a fake.
type Generator interface {
	Ready() bool
	Generate(ctx context.Context, message string, history []Turn) (string, error)
}

// Client wraps the Gemini API. It is constructed once at startup and
// handed to whoever needs generation; there is no package-level
// singleton. A client without an API key reports not-ready and the
// caller falls back to canned replies.
type Client struct {
	genai  *genai.Client
	cfg    config.GeminiConfig
	logger *logger.Logger
}

// NewClient creates a generation client. A missing API key is not an
// error: the client simply stays disabled.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *logger.Logger) (*Client, error) {
	c := &Client{
		cfg:    cfg,
		logger: log.WithComponent("gemini-client"),
	}

	if cfg.APIKey == "" {
		c.logger.Warn().Msg("Gemini API key not configured, generation disabled")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.genai = gc

	return c, nil
}

// Ready reports whether generation calls can be made
func (c *Client) Ready() bool {
	return c.genai != nil
}

// Generate produces the assistant's reply to the student message,
// given prior conversation turns oldest first.
func (c *Client) Generate(ctx context.Context, message string, history []Turn) (string, error) {
	if !c.Ready() {
		return "", fmt.Errorf("generation client is not configured")
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		var role genai.Role = genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		TopK:              genai.Ptr(c.cfg.TopK),
		TopP:              genai.Ptr(c.cfg.TopP),
		MaxOutputTokens:   c.cfg.MaxTokens,
		// Do not block self-harm related content outright: the whole
		// point is hearing it so risk analysis and escalation can react.
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
		},
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.cfg.Model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate reply: %w", err)
	}
	c.logger.Debug().
		Str("model", c.cfg.Model).
		Dur("latency", time.Since(start)).
		Int("history_turns", len(history)).
		Msg("reply generated")

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return reply, nil
}
