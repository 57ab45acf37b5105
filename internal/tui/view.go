package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/domain"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	questionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const sourcePreviewRunes = 300

func (m *Model) resize(width, height int) {
	rw, rh := resultBoxStyle.GetFrameSize()
	_, qh := queryBoxStyle.GetFrameSize()
	// header, document line, summary, input line, status, help
	reserved := 6 + qh
	vh := height - reserved - rh
	m.viewport.Width = max(20, width-rw)
	m.viewport.Height = max(3, vh)
	m.input.Width = max(10, width-8)
	m.picker.Height = max(5, height-6)
	m.help.Width = width
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderRecords())
}

func (m Model) renderRecords() string {
	records := m.session.Records()
	if len(records) == 0 {
		if m.doc == nil {
			return dimStyle.Render("No document loaded. Questions are answered without document context.")
		}
		return dimStyle.Render("No questions yet.")
	}
	wrap := lipgloss.NewStyle().Width(max(20, m.viewport.Width-1))
	var sb strings.Builder
	for i, rec := range records {
		if i > 0 {
			sb.WriteString("\n" + dimStyle.Render(strings.Repeat("─", max(10, m.viewport.Width-1))) + "\n\n")
		}
		sb.WriteString(wrap.Render(questionStyle.Render("Q: ") + rec.Question))
		sb.WriteString("\n")
		answer := "A: " + rec.Answer
		if rec.Failed {
			answer = errorStyle.Render(answer)
		}
		sb.WriteString(wrap.Render(answer))
		sb.WriteString("\n")
		if rec.Notice != "" {
			sb.WriteString(wrap.Render(dimStyle.Render(rec.Notice)))
			sb.WriteString("\n")
		}
		if m.showContext && len(rec.Context) > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("Sources (%d):", len(rec.Context))))
			sb.WriteString("\n")
			for j, r := range rec.Context {
				line := fmt.Sprintf("[%d] score=%.3f  %s", j+1, r.Score, highlightBestSentence(preview(r.Chunk.Text), rec.Question))
				sb.WriteString(wrap.Render(line))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= sourcePreviewRunes {
		return text
	}
	return string(r[:sourcePreviewRunes]) + "…"
}

func (m Model) documentLine() string {
	if m.doc == nil {
		return dimStyle.Render("No document")
	}
	return formatStats(m.doc.Name, m.doc.Stats)
}

func formatStats(name string, st domain.Stats) string {
	return fmt.Sprintf("%s · %d characters · %d words · %d chunks · avg %d chars/chunk",
		name, st.Characters, st.Words, st.Chunks, st.AvgChunkSize)
}

func (m Model) settingsLine() string {
	ctx := "shown"
	if !m.showContext {
		ctx = "hidden"
	}
	return fmt.Sprintf("k=%d/%d · sources %s", m.topK, m.opts.MaxTopK, ctx)
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.mode == modePicker {
		return titleStyle.Render("Open document") + "\n" +
			dimStyle.Render(m.picker.CurrentDirectory) + "\n\n" +
			m.picker.View() + "\n" +
			statusStyle.Render(m.status)
	}

	header := titleStyle.Render("Document Chat") + "  " + dimStyle.Render(m.settingsLine())
	summary := ""
	if m.doc != nil && m.doc.Summary != "" {
		summary = dimStyle.Render(truncateLine(m.doc.Summary, max(20, m.width)))
	}
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		m.documentLine() + "\n" +
		summary + "\n" +
		resultBoxStyle.Render(m.viewport.View()) + "\n" +
		queryBoxStyle.Render(m.input.View()) + "\n" +
		status + "\n" +
		m.help.View(m.keys)
}

func truncateLine(s string, width int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= width {
		return string(r)
	}
	return string(r[:width-1]) + "…"
}
