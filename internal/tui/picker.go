package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amonks/taskboard/api"
)

// memberPicker toggles board membership. The owner is never offered.
type memberPicker struct {
	boardID  string
	users    []api.User
	selected map[string]bool
	cursor   int
}

func newMemberPicker(board api.Board, users []api.User) *memberPicker {
	p := &memberPicker{boardID: board.ID, selected: make(map[string]bool)}
	for _, user := range users {
		if user.ID == board.OwnerID {
			continue
		}
		p.users = append(p.users, user)
	}
	for _, id := range board.MemberIDs {
		p.selected[id] = true
	}
	return p
}

// Update handles a key and reports whether the selection was saved or
// abandoned.
func (p *memberPicker) Update(msg tea.Msg) (save, cancel bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, false
	}
	switch key.String() {
	case "esc":
		return false, true
	case "enter", "ctrl+s":
		return true, false
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.users)-1 {
			p.cursor++
		}
	case " ", "x":
		if p.cursor < len(p.users) {
			id := p.users[p.cursor].ID
			p.selected[id] = !p.selected[id]
		}
	}
	return false, false
}

// MemberIDs returns the chosen members in user order. It is never nil.
func (p *memberPicker) MemberIDs() []string {
	ids := make([]string, 0, len(p.selected))
	for _, user := range p.users {
		if p.selected[user.ID] {
			ids = append(ids, user.ID)
		}
	}
	return ids
}

func (p *memberPicker) View() string {
	lines := []string{labelStyle.Render("Board members"), ""}
	if len(p.users) == 0 {
		lines = append(lines, valueMuted.Render("No other users"))
	}
	for i, user := range p.users {
		box := "[ ]"
		if p.selected[user.ID] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s <%s>", box, user.Name, user.Email)
		if i == p.cursor {
			line = itemSelectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", valueMuted.Render("space toggle | enter save | esc cancel"))
	return strings.Join(lines, "\n")
}
