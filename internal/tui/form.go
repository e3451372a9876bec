package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type fieldKind int

const (
	fieldLine fieldKind = iota
	fieldArea
	fieldChoice
)

type choice struct {
	value string
	label string
}

type formField struct {
	key      string
	label    string
	kind     fieldKind
	input    textinput.Model
	textarea textarea.Model
	choices  []choice
	index    int
}

func lineField(key, label, value string) formField {
	input := textinput.New()
	input.Prompt = ""
	input.SetValue(value)
	return formField{key: key, label: label, kind: fieldLine, input: input}
}

func areaField(key, label, value string) formField {
	area := textarea.New()
	area.ShowLineNumbers = false
	area.Prompt = ""
	area.SetHeight(5)
	area.SetValue(value)
	return formField{key: key, label: label, kind: fieldArea, textarea: area}
}

func choiceField(key, label string, choices []choice, value string) formField {
	field := formField{key: key, label: label, kind: fieldChoice, choices: choices}
	for i, c := range choices {
		if c.value == value {
			field.index = i
		}
	}
	return field
}

func (field formField) Value() string {
	switch field.kind {
	case fieldArea:
		return field.textarea.Value()
	case fieldChoice:
		if len(field.choices) == 0 {
			return ""
		}
		return field.choices[field.index].value
	default:
		return field.input.Value()
	}
}

func (field formField) Focus() formField {
	switch field.kind {
	case fieldArea:
		field.textarea.Focus()
	case fieldLine:
		field.input.Focus()
	}
	return field
}

func (field formField) Blur() formField {
	switch field.kind {
	case fieldArea:
		field.textarea.Blur()
	case fieldLine:
		field.input.Blur()
	}
	return field
}

func (field formField) SetWidth(width int) formField {
	switch field.kind {
	case fieldArea:
		field.textarea.SetWidth(width)
	case fieldLine:
		field.input.Width = width
	}
	return field
}

func (field formField) Update(msg tea.Msg) (formField, tea.Cmd) {
	var cmd tea.Cmd
	switch field.kind {
	case fieldArea:
		field.textarea, cmd = field.textarea.Update(msg)
	case fieldChoice:
		if key, ok := msg.(tea.KeyMsg); ok && len(field.choices) > 0 {
			switch key.String() {
			case "left", "h":
				field.index = (field.index - 1 + len(field.choices)) % len(field.choices)
			case "right", "l", " ":
				field.index = (field.index + 1) % len(field.choices)
			}
		}
	default:
		field.input, cmd = field.input.Update(msg)
	}
	return field, cmd
}

func (field formField) View(focused bool) string {
	switch field.kind {
	case fieldArea:
		return field.textarea.View()
	case fieldChoice:
		if len(field.choices) == 0 {
			return "-"
		}
		label := field.choices[field.index].label
		if focused {
			return selectedBorder.Render("< " + label + " >")
		}
		return label
	default:
		return field.input.View()
	}
}

type formPurpose int

const (
	formCreateUser formPurpose = iota
	formEditUser
	formCreateBoard
	formRenameBoard
	formCreateTask
	formEditTask
	formAddComment
	formEditComment
)

// formModel is a modal editor for one entity.
type formModel struct {
	purpose  formPurpose
	title    string
	targetID string
	fields   []formField
	index    int
	err      string
}

func newForm(purpose formPurpose, title, targetID string, fields ...formField) *formModel {
	f := &formModel{purpose: purpose, title: title, targetID: targetID, fields: fields}
	if len(f.fields) > 0 {
		f.fields[0] = f.fields[0].Focus()
	}
	return f
}

// Update handles a key and reports whether the form was submitted or
// cancelled.
func (f *formModel) Update(msg tea.Msg) (cmd tea.Cmd, submit, cancel bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return nil, false, true
		case "ctrl+s":
			return nil, true, false
		case "enter":
			if f.currentKind() != fieldArea {
				return nil, true, false
			}
		case "tab":
			f.advance(1)
			return nil, false, false
		case "shift+tab", "backtab":
			f.advance(-1)
			return nil, false, false
		}
	}
	if len(f.fields) == 0 {
		return nil, false, false
	}
	f.fields[f.index], cmd = f.fields[f.index].Update(msg)
	return cmd, false, false
}

func (f *formModel) advance(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.index] = f.fields[f.index].Blur()
	f.index = (f.index + delta + len(f.fields)) % len(f.fields)
	f.fields[f.index] = f.fields[f.index].Focus()
}

func (f *formModel) currentKind() fieldKind {
	if len(f.fields) == 0 {
		return fieldLine
	}
	return f.fields[f.index].kind
}

func (f *formModel) SetWidth(width int) {
	for i := range f.fields {
		f.fields[i] = f.fields[i].SetWidth(width)
	}
}

// Value returns the value of the field with the given key.
func (f *formModel) Value(key string) string {
	for _, field := range f.fields {
		if field.key == key {
			return field.Value()
		}
	}
	return ""
}

func (f *formModel) View() string {
	lines := []string{labelStyle.Render(f.title), ""}
	for i, field := range f.fields {
		label := labelStyle.Render(field.label + ":")
		if field.kind == fieldArea {
			lines = append(lines, label, field.View(i == f.index))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", label, field.View(i == f.index)))
	}
	if f.err != "" {
		lines = append(lines, "", statusErrorStyle.Render(f.err))
	}
	lines = append(lines, "", valueMuted.Render("tab next field | ctrl+s save | esc cancel"))
	return strings.Join(lines, "\n")
}
