package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"github.com/raphaelgruber/medilex/internal/models"
)

// newTestClient points a GeminiClient at an httptest server with the rate
// limiter opened up.
func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient("AIzaSyTESTKEY1234567890", nil,
		WithGeminiBaseURL(srv.URL),
		WithGeminiLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	return c
}

func textResponse(text string) string {
	raw, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}}},
		},
	})
	return string(raw)
}

func TestGeminiCompleteText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		io.WriteString(w, textResponse("A lung condition."))
	})

	text, err := c.CompleteText(context.Background(), "explain asthma", CompleteOptions{WebSearch: true})
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if text != "A lung condition." {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/models/"+DefaultGeminiTextModel+":generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "AIzaSyTESTKEY1234567890" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotBody.Tools) != 1 || gotBody.Tools[0].GoogleSearch == nil {
		t.Errorf("web search tool not sent: %+v", gotBody.Tools)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "explain asthma" {
		t.Errorf("contents = %+v", gotBody.Contents)
	}
}

func TestGeminiCompleteTextWithoutWebSearch(t *testing.T) {
	var gotBody geminiRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		io.WriteString(w, textResponse("ok"))
	})

	if _, err := c.CompleteText(context.Background(), "p", CompleteOptions{}); err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if len(gotBody.Tools) != 0 {
		t.Errorf("tools sent without WebSearch: %+v", gotBody.Tools)
	}
}

func TestGeminiCompleteImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{
					{"text": "Here is your illustration."},
					{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(payload),
					}},
				}},
			}},
		})
		w.Write(raw)
	})

	img, err := c.CompleteImage(context.Background(), "illustrate asthma")
	if err != nil {
		t.Fatalf("CompleteImage: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("mime = %q", img.MIMEType)
	}
	if string(img.Data) != string(payload) {
		t.Errorf("data = %v", img.Data)
	}
	if uri := img.DataURI(); uri != "data:image/png;base64,"+base64.StdEncoding.EncodeToString(payload) {
		t.Errorf("DataURI = %q", uri)
	}
}

func TestGeminiCompleteImageNoInlineData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, textResponse("sorry, text only"))
	})

	if _, err := c.CompleteImage(context.Background(), "p"); !errors.Is(err, ErrNoImage) {
		t.Errorf("err = %v, want ErrNoImage", err)
	}
}

func TestGeminiChat(t *testing.T) {
	var gotBody geminiRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		io.WriteString(w, textResponse("It is chronic."))
	})

	turns := []Turn{
		{Role: models.RoleUser, Text: "Context: Definition of asthma: A lung condition."},
		{Role: models.RoleModel, Text: "Understood."},
	}
	reply, err := c.Chat(context.Background(), "You are a medical assistant.", turns, "Is it chronic?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "It is chronic." {
		t.Errorf("reply = %q", reply)
	}

	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "You are a medical assistant." {
		t.Errorf("system instruction = %+v", gotBody.SystemInstruction)
	}
	if len(gotBody.Contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(gotBody.Contents))
	}
	if gotBody.Contents[0].Role != "user" || gotBody.Contents[1].Role != "model" {
		t.Errorf("turn roles = %q, %q", gotBody.Contents[0].Role, gotBody.Contents[1].Role)
	}
	if gotBody.Contents[2].Role != "user" || gotBody.Contents[2].Parts[0].Text != "Is it chronic?" {
		t.Errorf("final turn = %+v", gotBody.Contents[2])
	}
}

func TestGeminiAuthFailureIsFatal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":{"message":"API key not valid"}}`)
	})

	_, err := c.CompleteText(context.Background(), "p", CompleteOptions{})
	if !errors.Is(err, ErrFatalAPI) {
		t.Errorf("err = %v, want ErrFatalAPI", err)
	}
}

func TestGeminiEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	if _, err := c.CompleteText(context.Background(), "p", CompleteOptions{}); err == nil {
		t.Error("expected error for empty candidates")
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("", nil); err == nil {
		t.Error("expected error for missing API key")
	}
}
