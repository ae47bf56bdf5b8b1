package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bookvault/internal/domain"
	"bookvault/internal/service"
)

var (
	auditTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	auditSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	auditDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	auditErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	auditDetailStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type auditModel struct {
	audit  *service.AuditService
	limit  int
	offset int

	entries []domain.AuditTrail
	cursor  int
	height  int
	err     string
}

type auditEntriesMsg []domain.AuditTrail
type auditErrMsg string

func newAuditModel(audit *service.AuditService, limit int) auditModel {
	return auditModel{audit: audit, limit: limit, height: 24}
}

func (m auditModel) Init() tea.Cmd { return m.load() }

func (m auditModel) load() tea.Cmd {
	audit, limit, offset := m.audit, m.limit, m.offset
	return func() tea.Msg {
		entries, err := audit.List(limit, offset)
		if err != nil {
			return auditErrMsg(err.Error())
		}
		return auditEntriesMsg(entries)
	}
}

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil
	case auditErrMsg:
		m.err = string(msg)
		return m, nil
	case auditEntriesMsg:
		m.entries = msg
		m.err = ""
		if m.cursor >= len(m.entries) {
			m.cursor = 0
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "r":
			return m, m.load()
		case "right", "n":
			m.offset += m.limit
			m.cursor = 0
			return m, m.load()
		case "left", "p":
			if m.offset >= m.limit {
				m.offset -= m.limit
			} else {
				m.offset = 0
			}
			m.cursor = 0
			return m, m.load()
		}
	}
	return m, nil
}

func (m auditModel) View() string {
	var b strings.Builder
	b.WriteString(auditTitleStyle.Render("Audit Trail"))
	b.WriteString(auditDimStyle.Render(fmt.Sprintf("  offset %d", m.offset)))
	b.WriteString("\n\n")

	if m.err != "" {
		b.WriteString(auditErrorStyle.Render("error: " + m.err))
		b.WriteString("\n")
	}
	if len(m.entries) == 0 {
		b.WriteString(auditDimStyle.Render("no entries"))
		b.WriteString("\n")
	}

	visible := m.height - 12
	if visible < 5 {
		visible = 5
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	for i := start; i < len(m.entries) && i < start+visible; i++ {
		e := m.entries[i]
		line := fmt.Sprintf("%s  %-28s  user %s",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.UserID)
		if i == m.cursor {
			b.WriteString(auditSelectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.cursor < len(m.entries) {
		e := m.entries[m.cursor]
		var detail strings.Builder
		if e.Description != nil {
			detail.WriteString(*e.Description)
		}
		if e.OldValue != nil {
			detail.WriteString("\nold: " + *e.OldValue)
		}
		if e.NewValue != nil {
			detail.WriteString("\nnew: " + *e.NewValue)
		}
		if detail.Len() > 0 {
			b.WriteString("\n")
			b.WriteString(auditDetailStyle.Render(detail.String()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(auditDimStyle.Render("j/k move  n/p page  r reload  q quit"))
	return b.String()
}
