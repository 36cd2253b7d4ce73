package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/ai"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// DefaultSystemPrompt instructs the model to answer from the user's notes only.
const DefaultSystemPrompt = "You are a personal notes assistant. Answer the user's question " +
	"using only the notes provided. If the notes do not contain the answer, say so briefly."

// Completer is a text-in, text-out model endpoint.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NoteLister loads a user's notes.
type NoteLister interface {
	List(ctx context.Context, username string) ([]models.Note, error)
}

// UserLookup resolves a username to its account.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AssistantService answers questions about a user's notes.
type AssistantService struct {
	users        UserLookup
	notes        NoteLister
	completer    Completer
	systemPrompt string
	log          *zap.Logger
}

// NewAssistantService constructs an AssistantService. A nil completer
// makes every answer come from the local fallback.
func NewAssistantService(users UserLookup, notes NoteLister, completer Completer, systemPrompt string, log *zap.Logger) *AssistantService {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &AssistantService{
		users:        users,
		notes:        notes,
		completer:    completer,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// Answer replies to question using username's notes as context.
// Remote failures degrade to ai.Fallback; an error is returned only for
// bad input, an unknown user, or notes that cannot be loaded.
func (s *AssistantService) Answer(ctx context.Context, username, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrMissingFields
	}
	if _, err := s.users.GetUserByUsername(ctx, username); err != nil {
		return "", err
	}

	notes, err := s.notes.List(ctx, username)
	if err != nil {
		return "", err
	}

	if s.completer == nil {
		return ai.Fallback(question, notes), nil
	}

	prompt := "My notes:\n\n" + ai.FormatContext(notes) + "\n\nQuestion: " + question
	answer, err := s.completer.Complete(ctx, s.systemPrompt, prompt)
	if err != nil {
		s.log.Warn("completion failed, using local answer", zap.String("user", username), zap.Error(err))
		return ai.Fallback(question, notes), nil
	}

	answer = ai.StripReasoning(answer)
	if answer == "" {
		s.log.Warn("completion was empty, using local answer", zap.String("user", username))
		return ai.Fallback(question, notes), nil
	}
	return answer, nil
}
