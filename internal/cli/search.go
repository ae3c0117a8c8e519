package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/medilex/internal/models"
)

var searchLang string

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Look up a medical term once and print the explanation",
	Long: `Look up a medical term and print the AI-generated definition, key points
and sources. The lookup is recorded in the history like an interactive one.

Examples:
  medilex search "asthma"
  medilex search "ارتفاع ضغط الدم" --lang ar`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchLang, "lang", "l", "", "response language: en or ar")
}

var (
	termStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFD7"))
	sectionStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
)

func runSearch(cmd *cobra.Command, args []string) error {
	term := strings.TrimSpace(args[0])
	if term == "" {
		return errors.New("search term must not be blank")
	}

	ctx := cmd.Context()
	controller, err := buildController(ctx)
	if err != nil {
		return fmt.Errorf("init session: %w", err)
	}
	if controller == nil {
		return fmt.Errorf("no API key configured; run 'medilex key set' first")
	}

	if searchLang != "" {
		controller.SetLanguage(models.ParseLanguage(searchLang))
	}

	controller.SubmitSearch(ctx, term)

	state := controller.Snapshot()
	if state.Loading == models.StateError {
		return errors.New(state.Error)
	}
	if state.Result == nil {
		return errors.New("lookup produced no result")
	}

	printResult(state.Result)
	return nil
}

func printResult(r *models.SearchResult) {
	fmt.Println(termStyle.Render(r.Term))
	fmt.Println()
	fmt.Println(r.Definition)

	if len(r.KeyPoints) > 0 {
		fmt.Println()
		fmt.Println(sectionStyle.Render("Key points"))
		for _, p := range r.KeyPoints {
			fmt.Printf("  • %s\n", p)
		}
	}

	if len(r.Sources) > 0 {
		fmt.Println()
		fmt.Println(sectionStyle.Render("Sources"))
		for _, s := range r.Sources {
			fmt.Printf("  • %s\n", s)
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("Image: " + materializeImage(r)))
}

// materializeImage writes an inline data-URI image to a temp file and
// returns its path; plain URLs pass through untouched.
func materializeImage(r *models.SearchResult) string {
	if !strings.HasPrefix(r.ImageURL, "data:") {
		return r.ImageURL
	}

	payload := r.ImageURL
	idx := strings.Index(payload, ";base64,")
	if idx < 0 {
		return "(unrenderable inline image)"
	}
	raw, err := base64.StdEncoding.DecodeString(payload[idx+len(";base64,"):])
	if err != nil {
		return "(unrenderable inline image)"
	}

	ext := ".png"
	if strings.HasPrefix(payload, "data:image/jpeg") {
		ext = ".jpg"
	}
	path := filepath.Join(os.TempDir(), "medilex-"+sanitize(r.Term)+ext)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "(unrenderable inline image)"
	}
	return path
}

func sanitize(term string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, term)
}
