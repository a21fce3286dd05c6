package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/agrisense/advisor/internal/session"
)

var (
	// ErrGenerationUnavailable is returned when no generation service is configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationTimeout is returned when the service does not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrGeneration wraps any other generation failure.
	ErrGeneration = errors.New("generation failed")
)

// Generator drafts free-form advice from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Unavailable is the Generator used when no service is configured.
// Every call fails, so the advisor always answers from its template.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, Prompt) (string, error) {
	return "", ErrGenerationUnavailable
}

// ChatGenerator drafts advice with an Eino chat model.
type ChatGenerator struct {
	model model.BaseChatModel
}

// NewChatGenerator wraps a chat model.
func NewChatGenerator(m model.BaseChatModel) *ChatGenerator {
	return &ChatGenerator{model: m}
}

// Generate sends the prompt as a system message, the history, and a user message.
func (g *ChatGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	messages := make([]*schema.Message, 0, len(p.History)+2)
	messages = append(messages, schema.SystemMessage(p.System))
	for _, t := range p.History {
		if t.Role == session.RoleAssistant {
			messages = append(messages, schema.AssistantMessage(t.Text, nil))
		} else {
			messages = append(messages, schema.UserMessage(t.Text))
		}
	}
	messages = append(messages, schema.UserMessage(p.User))

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", fmt.Errorf("%w: empty response", ErrGeneration)
	}
	return content, nil
}
