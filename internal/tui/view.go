package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/raphaelgruber/medilex/internal/models"
)

const contentWidth = 72

// View renders the whole page.
func (m appModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m appModel) renderContent() string {
	if m.quitting {
		return ""
	}
	if m.ctrl == nil {
		return m.renderKeyForm()
	}

	sidebar := m.theme.sidebarStyle().Render(m.renderSidebar())
	main := m.renderMain()
	page := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	help := m.theme.hintStyle().Render(
		"tab: switch pane  •  enter: submit  •  ctrl+g: language  •  ctrl+k: change key  •  ctrl+c: quit")
	return page + "\n" + help + "\n"
}

// renderKeyForm is the blocking credential-entry page.
func (m appModel) renderKeyForm() string {
	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render("MediLex") + "\n\n")
	b.WriteString("An API key for the configured AI provider is required.\n\n")
	b.WriteString(m.keyInput.View() + "\n")
	if m.keyErr != "" {
		b.WriteString(m.theme.errorStyle().Render(m.keyErr) + "\n")
	}
	b.WriteString("\n" + m.theme.hintStyle().Render("enter: save  •  ctrl+c: quit") + "\n")
	return b.String()
}

func (m appModel) renderSidebar() string {
	label := "History"
	if m.state.Language == models.LanguageArabic {
		label = "سجل البحث"
	}

	var b strings.Builder
	b.WriteString(m.theme.sectionStyle().Render(label) + "\n")
	if len(m.state.History) == 0 {
		b.WriteString(m.theme.hintStyle().Render("No history yet") + "\n")
		return b.String()
	}
	for i, it := range m.state.History {
		line := it.Term
		if m.focus == focusHistory && i == m.histCursor {
			line = m.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m appModel) renderMain() string {
	var b strings.Builder

	lang := "EN"
	if m.state.Language == models.LanguageArabic {
		lang = "AR"
	}
	b.WriteString(m.theme.titleStyle().Render("MediLex") +
		m.theme.dimStyle().Render("  ["+lang+"]") + "\n\n")

	b.WriteString(m.searchInput.View() + "\n\n")

	switch m.state.Loading {
	case models.StateSearching:
		b.WriteString(m.spin.View() + " Searching…\n")
	case models.StateError:
		b.WriteString(m.theme.errorStyle().Render(m.state.Error) + "\n")
	case models.StateSuccess, models.StateThinking:
		b.WriteString(m.renderResult())
		b.WriteString(m.renderChat())
	default:
		b.WriteString(m.theme.hintStyle().Render("Look up a medical term to get started.") + "\n")
	}

	return b.String()
}

func (m appModel) renderResult() string {
	r := m.state.Result
	if r == nil {
		return ""
	}

	body := lipgloss.NewStyle().Width(contentWidth)
	if m.state.Language.RTL() {
		body = body.Align(lipgloss.Right)
	}

	var b strings.Builder
	b.WriteString(m.theme.titleStyle().Render(r.Term) + "\n")
	b.WriteString(body.Render(r.Definition) + "\n\n")

	if len(r.KeyPoints) > 0 {
		b.WriteString(m.theme.sectionStyle().Render("Key points") + "\n")
		for _, p := range r.KeyPoints {
			b.WriteString(body.Render("• "+p) + "\n")
		}
		b.WriteString("\n")
	}
	if len(r.Sources) > 0 {
		b.WriteString(m.theme.sectionStyle().Render("Sources") + "\n")
		for _, s := range r.Sources {
			b.WriteString(body.Render("• "+s) + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.theme.dimStyle().Render("Image: "+describeImage(r.ImageURL)) + "\n\n")
	return b.String()
}

// describeImage keeps multi-kilobyte data URIs out of the layout.
func describeImage(url string) string {
	if strings.HasPrefix(url, "data:") {
		return fmt.Sprintf("inline illustration (%d KiB, view via 'medilex search')", len(url)/1024)
	}
	return url
}

func (m appModel) renderChat() string {
	var b strings.Builder
	for _, msg := range m.state.Messages {
		prefix := m.theme.userMsgStyle().Render("you ")
		if msg.Role == models.RoleModel {
			prefix = m.theme.titleStyle().Render("ai  ")
		}
		b.WriteString(prefix + msg.Text + "\n")
	}
	if m.state.Loading == models.StateThinking {
		b.WriteString(m.spin.View() + " Thinking…\n")
	}
	b.WriteString("\n" + m.chatInput.View() + "\n")
	return b.String()
}
