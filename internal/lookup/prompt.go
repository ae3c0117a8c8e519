package lookup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/raphaelgruber/medilex/internal/models"
)

// placeholderBase is the deterministic fallback image service; the term is
// URL-escaped into the text parameter.
const placeholderBase = "https://placehold.co/600x400?text="

// PlaceholderURL returns the fallback image URL for a term. Spaces are
// percent-encoded, not "+", so the URL is identical across clients.
func PlaceholderURL(term string) string {
	return placeholderBase + strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
}

// languageDirective tells the model which language to answer in. Arabic
// responses keep medical terms annotated in English so the reader can
// cross-reference sources.
func languageDirective(lang models.Language) string {
	if lang == models.LanguageArabic {
		return "Respond in Arabic. Ensure medical terms are also provided in English in parentheses."
	}
	return "Respond in English."
}

// textPrompt builds the lookup prompt. The model is told to answer with a
// bare JSON object; Normalize copes when it doesn't.
func textPrompt(term string, lang models.Language) string {
	return fmt.Sprintf(`You are an expert medical tutor. The user wants to understand the medical term: %q.

%s

Task:
1. Provide a simple but scientifically accurate explanation.
2. Provide 3-5 basic key points about this condition/term.
3. List 2-3 reliable scientific sources (e.g., Mayo Clinic, NIH, WHO) where this information can be verified.

Output Format:
Provide ONLY valid JSON in the following format, with no extra text or markdown formatting:
{
  "definition": "The simple explanation...",
  "keyPoints": ["Point 1", "Point 2", ...],
  "sources": ["Source Name 1", "Source Name 2"]
}`, term, languageDirective(lang))
}

// imagePrompt asks for a clinical illustration of the term.
func imagePrompt(term string) string {
	return fmt.Sprintf("Create a clear, professional medical illustration of: %s. reliable, anatomical style, white background, educational diagram, high quality.", term)
}
