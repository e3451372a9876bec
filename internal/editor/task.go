package editor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/BurntSushi/toml"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/validation"
)

// TaskData is rendered into the file the user edits.
type TaskData struct {
	// IsUpdate is true when editing an existing task.
	IsUpdate bool
	Title    string
	Status   string
	// AssigneeID is empty for an unassigned task.
	AssigneeID  string
	Description string
}

// DefaultCreateData returns the template for a new task.
func DefaultCreateData() TaskData {
	return TaskData{Status: string(api.StatusTodo)}
}

// DataFromTask returns the template for editing task.
func DataFromTask(task api.Task) TaskData {
	return TaskData{
		IsUpdate:    true,
		Title:       task.Title,
		Status:      string(task.Status),
		AssigneeID:  task.AssigneeID,
		Description: task.Description,
	}
}

var taskTemplate = template.Must(template.New("task").Funcs(template.FuncMap{
	"statuses": statusList,
}).Parse(`title = {{ printf "%q" .Title }}
status = {{ printf "%q" .Status }} # {{ statuses }}
assignee = {{ printf "%q" .AssigneeID }} # user id, empty for nobody
---
{{ .Description }}
`))

// RenderTaskTOML renders data as TOML frontmatter followed by the
// markdown description.
func RenderTaskTOML(data TaskData) (string, error) {
	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedTask is the edited task.
type ParsedTask struct {
	Title       string `toml:"title"`
	Status      string `toml:"status"`
	AssigneeID  string `toml:"assignee"`
	Description string `toml:"-"`
}

// ParseTaskTOML parses an edited file.
func ParseTaskTOML(content string) (*ParsedTask, error) {
	frontmatter, body := splitFrontmatter(content)

	var parsed ParsedTask
	if _, err := toml.Decode(frontmatter, &parsed); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	parsed.Title = strings.TrimSpace(parsed.Title)
	parsed.Status = strings.ToLower(strings.TrimSpace(parsed.Status))
	parsed.AssigneeID = strings.TrimSpace(parsed.AssigneeID)
	parsed.Description = strings.TrimRight(strings.TrimLeft(body, "\n"), "\n")

	if parsed.Title == "" {
		return nil, fmt.Errorf("%w: title is required", api.ErrInvalidInput)
	}
	if parsed.Status == "" {
		parsed.Status = string(api.StatusTodo)
	}
	if err := api.ValidateStatus(api.Status(parsed.Status)); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func splitFrontmatter(content string) (string, string) {
	content = strings.TrimLeft(content, "\n")
	if content == "" {
		return "", ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}

func statusList() string {
	return validation.FormatValidValues(api.ValidStatuses())
}

// EditTask opens data in the editor and returns the parsed result.
func EditTask(data TaskData) (*ParsedTask, error) {
	content, err := RenderTaskTOML(data)
	if err != nil {
		return nil, err
	}

	tmpfile, err := os.CreateTemp("", "tb-task-*.md")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	return ParseTaskTOML(string(edited))
}

// ToInput builds the create payload for boardID.
func (p *ParsedTask) ToInput(boardID string) api.TaskInput {
	return api.TaskInput{
		BoardID:     boardID,
		Title:       p.Title,
		Status:      api.Status(p.Status),
		Description: p.Description,
		AssigneeID:  p.AssigneeID,
	}
}

// ToPatch returns the fields that differ from task.
func (p *ParsedTask) ToPatch(task api.Task) api.TaskPatch {
	var patch api.TaskPatch
	if p.Title != task.Title {
		patch.Title = api.StringPtr(p.Title)
	}
	if p.Description != task.Description {
		patch.Description = api.StringPtr(p.Description)
	}
	if status := api.Status(p.Status); status != task.Status {
		patch.Status = api.StatusPtr(status)
	}
	if p.AssigneeID != task.AssigneeID {
		patch.AssigneeID = api.StringPtr(p.AssigneeID)
	}
	return patch
}
