package lookup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raphaelgruber/medilex/internal/llm"
	"github.com/raphaelgruber/medilex/internal/models"
)

// fakeCompleter scripts provider behavior for orchestrator tests.
type fakeCompleter struct {
	text      string
	textErr   error
	textDelay time.Duration

	image      *llm.ImageData
	imageErr   error
	imageDelay time.Duration

	imageDone chan struct{}
}

func (f *fakeCompleter) CompleteText(ctx context.Context, prompt string, opts llm.CompleteOptions) (string, error) {
	if f.textDelay > 0 {
		time.Sleep(f.textDelay)
	}
	return f.text, f.textErr
}

func (f *fakeCompleter) CompleteImage(ctx context.Context, prompt string) (*llm.ImageData, error) {
	if f.imageDelay > 0 {
		time.Sleep(f.imageDelay)
	}
	if f.imageDone != nil {
		close(f.imageDone)
	}
	return f.image, f.imageErr
}

func (f *fakeCompleter) Chat(ctx context.Context, system string, turns []llm.Turn, message string) (string, error) {
	return "", errors.New("not used")
}

func TestSearchSuccess(t *testing.T) {
	fake := &fakeCompleter{
		text:  `{"definition":"A lung condition.","keyPoints":["Point A"],"sources":["WHO"]}`,
		image: &llm.ImageData{MIMEType: "image/png", Data: []byte{1, 2, 3}},
	}
	s := NewSearcher(fake, nil, nil)

	result, err := s.Search(context.Background(), "asthma", models.LanguageEnglish)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if result.Definition != "A lung condition." {
		t.Errorf("definition = %q", result.Definition)
	}
	if len(result.KeyPoints) != 1 || result.KeyPoints[0] != "Point A" {
		t.Errorf("keyPoints = %v", result.KeyPoints)
	}
	if len(result.Sources) != 1 || result.Sources[0] != "WHO" {
		t.Errorf("sources = %v", result.Sources)
	}
	if !strings.HasPrefix(result.ImageURL, "data:image/png;base64,") {
		t.Errorf("imageURL = %q, want data URI", result.ImageURL)
	}
}

func TestSearchTextFailureFailsLookup(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{"image also fails", &fakeCompleter{textErr: errors.New("boom"), imageErr: errors.New("boom")}},
		{"image succeeds", &fakeCompleter{
			textErr: errors.New("boom"),
			image:   &llm.ImageData{MIMEType: "image/png", Data: []byte{1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(tt.fake, nil, nil)
			result, err := s.Search(context.Background(), "asthma", models.LanguageEnglish)
			if !errors.Is(err, ErrLookup) {
				t.Fatalf("err = %v, want ErrLookup", err)
			}
			if result != nil {
				t.Errorf("expected no result, got %+v", result)
			}
		})
	}
}

func TestSearchImageFallback(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{"provider failure", &fakeCompleter{text: `{"definition":"D."}`, imageErr: errors.New("unavailable")}},
		{"no inline image", &fakeCompleter{text: `{"definition":"D."}`, imageErr: llm.ErrNoImage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearcher(tt.fake, nil, nil)
			result, err := s.Search(context.Background(), "heart attack", models.LanguageEnglish)
			if err != nil {
				t.Fatalf("Search returned error: %v", err)
			}
			want := PlaceholderURL("heart attack")
			if result.ImageURL != want {
				t.Errorf("imageURL = %q, want %q", result.ImageURL, want)
			}
			if !strings.Contains(result.ImageURL, "heart%20attack") {
				t.Errorf("placeholder does not contain escaped term: %q", result.ImageURL)
			}
		})
	}
}

// A failing text request must not cancel or skip the image request: the
// join waits for both to settle.
func TestSearchWaitsForBothRequests(t *testing.T) {
	fake := &fakeCompleter{
		textErr:    errors.New("fast failure"),
		image:      &llm.ImageData{MIMEType: "image/png", Data: []byte{1}},
		imageDelay: 50 * time.Millisecond,
		imageDone:  make(chan struct{}),
	}
	s := NewSearcher(fake, nil, nil)

	_, err := s.Search(context.Background(), "asthma", models.LanguageEnglish)
	if !errors.Is(err, ErrLookup) {
		t.Fatalf("err = %v, want ErrLookup", err)
	}

	select {
	case <-fake.imageDone:
	default:
		t.Error("image request did not run to completion before Search returned")
	}
}

func TestSearchEmptyTerm(t *testing.T) {
	s := NewSearcher(&fakeCompleter{}, nil, nil)
	for _, term := range []string{"", "   ", "\t"} {
		if _, err := s.Search(context.Background(), term, models.LanguageEnglish); !errors.Is(err, ErrEmptyTerm) {
			t.Errorf("Search(%q) err = %v, want ErrEmptyTerm", term, err)
		}
	}
}

func TestPlaceholderURL(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"asthma", "https://placehold.co/600x400?text=asthma"},
		{"heart attack", "https://placehold.co/600x400?text=heart%20attack"},
		{"flu & cold", "https://placehold.co/600x400?text=flu%20%26%20cold"},
	}
	for _, tt := range tests {
		if got := PlaceholderURL(tt.term); got != tt.want {
			t.Errorf("PlaceholderURL(%q) = %q, want %q", tt.term, got, tt.want)
		}
	}
}

func TestTextPromptLanguageDirective(t *testing.T) {
	en := textPrompt("asthma", models.LanguageEnglish)
	if !strings.Contains(en, "Respond in English.") {
		t.Errorf("english prompt missing directive")
	}
	ar := textPrompt("asthma", models.LanguageArabic)
	if !strings.Contains(ar, "Respond in Arabic.") || !strings.Contains(ar, "English in parentheses") {
		t.Errorf("arabic prompt missing directives: %q", ar)
	}
}
