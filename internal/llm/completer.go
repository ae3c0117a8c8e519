// Package llm abstracts the generative-AI provider behind text, image and
// chat completion operations.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/raphaelgruber/medilex/internal/models"
)

// CompleteOptions tunes a single text completion.
type CompleteOptions struct {
	// WebSearch asks the provider to ground the completion with live web
	// search. Providers without the capability ignore it.
	WebSearch bool
}

// Turn is one prior conversation turn sent with a chat request.
type Turn struct {
	Role models.Role
	Text string
}

// ImageData is an inline image payload returned by image completion.
type ImageData struct {
	MIMEType string
	Data     []byte
}

// DataURI encodes the image as a self-contained data URI.
func (d *ImageData) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", d.MIMEType, base64.StdEncoding.EncodeToString(d.Data))
}

// Completer is the provider boundary. Each call is one network round trip;
// nothing is cached or retried here. Credentials are fixed at construction,
// changing the key means constructing a new Completer.
type Completer interface {
	// CompleteText sends a prompt and returns the raw completion text.
	CompleteText(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// CompleteImage sends an image-generation prompt. Returns ErrNoImage
	// when the provider answers without an inline image payload (or cannot
	// generate images at all).
	CompleteImage(ctx context.Context, prompt string) (*ImageData, error)

	// Chat sends one message against a system instruction and ordered
	// prior turns, returning the assistant's reply text.
	Chat(ctx context.Context, system string, turns []Turn, message string) (string, error)
}
