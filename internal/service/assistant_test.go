package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

type completerFunc func(ctx context.Context, system, user string) (string, error)

func (f completerFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

type listerFunc func(ctx context.Context, username string) ([]models.Note, error)

func (f listerFunc) List(ctx context.Context, username string) ([]models.Note, error) {
	return f(ctx, username)
}

func knownUsers() *mockUserRepo {
	return &mockUserRepo{
		GetUserByUsernameFunc: func(ctx context.Context, username string) (*models.User, error) {
			if username != "alice" {
				return nil, ErrUserNotFound
			}
			return &models.User{ID: 1, Username: "alice"}, nil
		},
	}
}

func aliceNotes(ctx context.Context, username string) ([]models.Note, error) {
	return []models.Note{{Title: "Trip", Text: "Kyoto temples", Timestamp: 1000}}, nil
}

func TestAssistant_RemoteAnswer(t *testing.T) {
	var gotSystem, gotUser string
	remote := completerFunc(func(ctx context.Context, system, user string) (string, error) {
		gotSystem, gotUser = system, user
		return "<think>the user went to Kyoto</think>\nYou visited Kyoto.", nil
	})
	svc := NewAssistantService(knownUsers(), listerFunc(aliceNotes), remote, "", zap.NewNop())

	answer, err := svc.Answer(context.Background(), "alice", "Where did I travel?")
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if answer != "You visited Kyoto." {
		t.Errorf("Answer = %q", answer)
	}
	if gotSystem != DefaultSystemPrompt {
		t.Errorf("system prompt = %q", gotSystem)
	}
	if !strings.Contains(gotUser, "Title: Trip") || !strings.HasSuffix(gotUser, "Question: Where did I travel?") {
		t.Errorf("user message = %q", gotUser)
	}
}

func TestAssistant_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		completer Completer
	}{
		{name: "no completer"},
		{name: "remote error", completer: completerFunc(func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("status=500")
		})},
		{name: "only reasoning", completer: completerFunc(func(ctx context.Context, system, user string) (string, error) {
			return "<think>...</think>   ", nil
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAssistantService(knownUsers(), listerFunc(aliceNotes), tt.completer, "", zap.NewNop())
			answer, err := svc.Answer(context.Background(), "alice", "kyoto")
			if err != nil {
				t.Fatalf("Answer returned error: %v", err)
			}
			if !strings.Contains(answer, "Trip") {
				t.Errorf("Answer = %q; want the local match", answer)
			}
		})
	}
}

func TestAssistant_Errors(t *testing.T) {
	loadErr := errors.New("db down")
	tests := []struct {
		name     string
		username string
		question string
		lister   listerFunc
		wantErr  error
	}{
		{name: "empty question", username: "alice", question: "  ", lister: aliceNotes, wantErr: ErrMissingFields},
		{name: "unknown user", username: "bob", question: "hi", lister: aliceNotes, wantErr: ErrUserNotFound},
		{name: "notes unavailable", username: "alice", question: "hi", wantErr: loadErr,
			lister: func(ctx context.Context, username string) ([]models.Note, error) { return nil, loadErr }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAssistantService(knownUsers(), tt.lister, nil, "", zap.NewNop())
			if _, err := svc.Answer(context.Background(), tt.username, tt.question); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Answer error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}
