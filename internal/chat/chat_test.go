package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raphaelgruber/medilex/internal/llm"
	"github.com/raphaelgruber/medilex/internal/models"
)

// fakeCompleter records the chat request it receives.
type fakeCompleter struct {
	reply string
	err   error

	gotSystem  string
	gotTurns   []llm.Turn
	gotMessage string
}

func (f *fakeCompleter) CompleteText(context.Context, string, llm.CompleteOptions) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeCompleter) CompleteImage(context.Context, string) (*llm.ImageData, error) {
	return nil, llm.ErrNoImage
}

func (f *fakeCompleter) Chat(ctx context.Context, system string, turns []llm.Turn, message string) (string, error) {
	f.gotSystem = system
	f.gotTurns = turns
	f.gotMessage = message
	return f.reply, f.err
}

func TestAskSuccess(t *testing.T) {
	fake := &fakeCompleter{reply: "No, asthma is not contagious."}
	o := NewOrchestrator(fake, nil, nil)

	outcome := o.Ask(context.Background(), "asthma", "A lung condition.", nil, "Is it contagious?", models.LanguageEnglish)
	if outcome.Degraded {
		t.Error("successful turn marked degraded")
	}
	if outcome.Text != "No, asthma is not contagious." {
		t.Errorf("text = %q", outcome.Text)
	}
	if fake.gotMessage != "Is it contagious?" {
		t.Errorf("message = %q", fake.gotMessage)
	}
}

func TestAskSeedsContextTurns(t *testing.T) {
	fake := &fakeCompleter{reply: "ok"}
	o := NewOrchestrator(fake, nil, nil)

	prior := []models.ChatMessage{
		{Role: models.RoleUser, Text: "first question"},
		{Role: models.RoleModel, Text: "first answer"},
	}
	o.Ask(context.Background(), "asthma", "A lung condition.", prior, "next", models.LanguageEnglish)

	if len(fake.gotTurns) != 4 {
		t.Fatalf("got %d turns, want 4 (2 seeds + 2 prior)", len(fake.gotTurns))
	}
	if fake.gotTurns[0].Role != models.RoleUser || !strings.Contains(fake.gotTurns[0].Text, "Context: Definition of asthma: A lung condition.") {
		t.Errorf("seed user turn = %+v", fake.gotTurns[0])
	}
	if fake.gotTurns[1].Role != models.RoleModel {
		t.Errorf("seed model turn role = %v", fake.gotTurns[1].Role)
	}
	if fake.gotTurns[2].Text != "first question" || fake.gotTurns[3].Text != "first answer" {
		t.Errorf("prior turns out of order: %+v", fake.gotTurns[2:])
	}
}

func TestAskSystemInstruction(t *testing.T) {
	tests := []struct {
		name string
		lang models.Language
		want string
	}{
		{"english", models.LanguageEnglish, "Answer in English."},
		{"arabic", models.LanguageArabic, "Answer in Arabic."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCompleter{reply: "ok"}
			o := NewOrchestrator(fake, nil, nil)
			o.Ask(context.Background(), "asthma", "d", nil, "q", tt.lang)

			if !strings.Contains(fake.gotSystem, `"asthma"`) {
				t.Errorf("system instruction does not name term: %q", fake.gotSystem)
			}
			if !strings.Contains(fake.gotSystem, tt.want) {
				t.Errorf("system instruction missing %q: %q", tt.want, fake.gotSystem)
			}
			if !strings.Contains(fake.gotSystem, "under 3 paragraphs") {
				t.Errorf("system instruction missing length constraint")
			}
		})
	}
}

func TestAskProviderFailureDegrades(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("quota exceeded")}
	o := NewOrchestrator(fake, nil, nil)

	outcome := o.Ask(context.Background(), "asthma", "d", nil, "q", models.LanguageEnglish)
	if !outcome.Degraded {
		t.Error("failed turn not marked degraded")
	}
	if outcome.Text != FallbackReply {
		t.Errorf("text = %q, want fallback", outcome.Text)
	}
}

func TestAskEmptyReply(t *testing.T) {
	fake := &fakeCompleter{reply: "   "}
	o := NewOrchestrator(fake, nil, nil)

	outcome := o.Ask(context.Background(), "asthma", "d", nil, "q", models.LanguageEnglish)
	if outcome.Degraded {
		t.Error("empty reply should not be degraded")
	}
	if outcome.Text != EmptyReply {
		t.Errorf("text = %q, want %q", outcome.Text, EmptyReply)
	}
}
