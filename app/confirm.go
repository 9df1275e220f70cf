package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/pdrolopes/syncmanager_TUI/styles"
)

// ConfirmModel is a yes/no modal overlaid on top of the active tab. The
// confirm button fires whatever command was armed when the modal opened.
type ConfirmModel struct {
	zonePrefix string

	visible      bool
	title        string
	body         string
	confirmLabel string
	onConfirm    tea.Cmd
}

func newConfirmModel() ConfirmModel {
	return ConfirmModel{zonePrefix: zone.NewPrefix()}
}

func (c *ConfirmModel) Show(title, body, confirmLabel string, onConfirm tea.Cmd) {
	c.visible = true
	c.title = title
	c.body = body
	c.confirmLabel = confirmLabel
	c.onConfirm = onConfirm
}

func (c *ConfirmModel) Hide() {
	c.visible = false
	c.onConfirm = nil
}

func (c ConfirmModel) Visible() bool { return c.visible }

// Update consumes the message when the modal is visible. The bool return
// says whether it was consumed.
func (c ConfirmModel) Update(msg tea.Msg) (ConfirmModel, tea.Cmd, bool) {
	if !c.visible {
		return c, nil, false
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "n":
			c.Hide()
			return c, nil, true
		case "enter", "y":
			cmd := c.onConfirm
			c.Hide()
			return c, cmd, true
		}
		return c, nil, true
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
			return c, nil, true
		}
		if zone.Get(c.zonePrefix + "confirm").InBounds(msg) {
			cmd := c.onConfirm
			c.Hide()
			return c, cmd, true
		}
		if zone.Get(c.zonePrefix + "cancel").InBounds(msg) {
			c.Hide()
			return c, nil, true
		}
		return c, nil, true
	}
	return c, nil, false
}

func (c ConfirmModel) View() string {
	confirm := zone.Mark(c.zonePrefix+"confirm", styles.PositiveBtn.Render(c.confirmLabel))
	cancel := zone.Mark(c.zonePrefix+"cancel", styles.NegativeBtn.Render("Cancel"))
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, confirm, "  ", cancel)

	var doc strings.Builder
	doc.WriteString(lipgloss.NewStyle().Bold(true).Render(c.title))
	doc.WriteString("\n\n")
	doc.WriteString(c.body)
	doc.WriteString("\n\n")
	doc.WriteString(lipgloss.PlaceHorizontal(lipgloss.Width(c.body), lipgloss.Center, buttons))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.AccentColor).
		Padding(1, 2).
		Render(doc.String())
}
