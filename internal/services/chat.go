// Package services composes the memory store and the reasoning loop into
// the per-turn session orchestrator.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/finsight/finsight-backend/internal/agent"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/models"
	"github.com/finsight/finsight-backend/internal/prompt"
)

// DefaultRecentLimit is how many prior messages the context window keeps.
const DefaultRecentLimit = 4

// TurnResult is everything one user turn produces.
type TurnResult struct {
	Answer         string   `json:"answer"`
	Observations   []string `json:"observations"`
	Trace          string   `json:"trace"`
	ConversationID int64    `json:"conversation_id"`
}

// ChatService is the single entry point per user turn.
type ChatService struct {
	store            *memory.Store
	model            agent.ModelClient
	tools            agent.Dispatcher
	systemPromptPath string
	recentLimit      int
	maxIterations    int
	logger           *logrus.Logger
}

// NewChatService creates the orchestrator. recentLimit and maxIterations
// <= 0 select the defaults.
func NewChatService(store *memory.Store, model agent.ModelClient, tools agent.Dispatcher,
	systemPromptPath string, recentLimit, maxIterations int, logger *logrus.Logger) *ChatService {
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	if maxIterations <= 0 {
		maxIterations = agent.DefaultMaxIterations
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatService{
		store:            store,
		model:            model,
		tools:            tools,
		systemPromptPath: systemPromptPath,
		recentLimit:      recentLimit,
		maxIterations:    maxIterations,
		logger:           logger,
	}
}

// Ask runs one turn: persist the user message, assemble the bounded
// context window, run the reasoning loop, persist the answer. Exactly one
// user message and one assistant message are appended per call, however
// many tool iterations the loop takes. Either append may trigger
// summarization inside the store.
func (s *ChatService) Ask(ctx context.Context, userID int64, input string, conversationID *int64, systemPrompt string) (*TurnResult, error) {
	var convID int64
	if conversationID != nil {
		convID = *conversationID
	} else {
		id, err := s.store.CreateConversation(ctx, userID, models.TruncateTitle(input))
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		convID = id
	}

	if _, err := s.store.AppendMessage(ctx, userID, models.RoleUser, input, &convID); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}

	window, err := s.buildContextWindow(ctx, convID, input)
	if err != nil {
		return nil, err
	}

	if systemPrompt == "" {
		systemPrompt = prompt.LoadSystemPrompt(s.systemPromptPath, s.logger)
	}

	controller := agent.NewController(s.model, s.tools, s.maxIterations, s.logger)
	result := controller.Run(ctx, systemPrompt, window)

	s.logger.WithFields(logrus.Fields{
		"user_id":         userID,
		"conversation_id": convID,
		"state":           result.State,
		"observations":    len(result.Observations),
	}).Info("turn completed")

	if _, err := s.store.AppendMessage(ctx, userID, models.RoleAssistant, result.Answer, &convID); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}

	return &TurnResult{
		Answer:         result.Answer,
		Observations:   result.Observations,
		Trace:          result.Trace,
		ConversationID: convID,
	}, nil
}

// buildContextWindow assembles summary line + recent messages + the new
// user message. The window is derived and ephemeral; it is never
// persisted.
func (s *ChatService) buildContextWindow(ctx context.Context, conversationID int64, input string) (string, error) {
	var parts []string

	if summary := s.store.GetSummary(ctx, conversationID); summary != "" {
		parts = append(parts, fmt.Sprintf("[Previous summary]: %s", summary))
	}

	recent, err := s.store.GetRecentMessages(ctx, conversationID, s.recentLimit)
	if err != nil {
		return "", fmt.Errorf("failed to load recent messages: %w", err)
	}
	for _, msg := range recent {
		parts = append(parts, memory.RenderLine(msg.Role, msg.Content))
	}

	parts = append(parts, memory.RenderLine(models.RoleUser, input))
	return strings.Join(parts, "\n"), nil
}
