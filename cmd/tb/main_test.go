package main

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/config"
)

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "tb" {
		t.Fatalf("expected root command name tb, got %q", rootCmd.Use)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	want := []string{"user", "board", "task", "comment", "history", "tui"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q, got %v (err %v)", name, cmd, err)
		}
	}
}

func TestVersionString(t *testing.T) {
	prevVersion, prevCommit := buildVersion, buildCommit
	t.Cleanup(func() {
		buildVersion, buildCommit = prevVersion, prevCommit
	})

	buildVersion = "1.2.3"
	buildCommit = "abc123"

	if got, want := versionString(), "tb 1.2.3 (commit abc123)"; got != want {
		t.Fatalf("expected version string %q, got %q", want, got)
	}
}

func TestDescriptionAliasUsesSingleFlag(t *testing.T) {
	var description string
	cmd := &cobra.Command{Use: "example"}
	addTaskFlagAliases(cmd)
	cmd.Flags().StringVarP(&description, "description", "d", "", "Example description")

	if err := cmd.Flags().Set("desc", "Hello"); err != nil {
		t.Fatalf("set desc alias: %v", err)
	}
	if description != "Hello" {
		t.Fatalf("expected description to be set via alias, got %q", description)
	}
	if !cmd.Flags().Changed("description") {
		t.Fatal("expected description flag to be marked as changed")
	}
	if usage := cmd.Flags().FlagUsages(); strings.Contains(usage, "--desc ") {
		t.Fatalf("did not expect alias to appear in usage, got %q", usage)
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, value := range []string{"table", "json", "yaml"} {
		if _, err := parseOutputFormat(value); err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
	}
	_, err := parseOutputFormat("xml")
	if !errors.Is(err, errInvalidFormat) {
		t.Fatalf("expected errInvalidFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "table, json, yaml") {
		t.Fatalf("expected valid formats in error, got %q", err.Error())
	}
}

func TestWriteOutputFormats(t *testing.T) {
	prev := rootFormat
	t.Cleanup(func() { rootFormat = prev })

	user := api.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}
	text := func() string { return "table\n" }

	tests := []struct {
		format string
		want   string
	}{
		{format: "table", want: "table\n"},
		{format: "json", want: "{\n  \"_id\": \"u1\",\n  \"name\": \"Ada\",\n  \"email\": \"ada@example.com\"\n}\n"},
		{format: "yaml", want: "id: u1\nname: Ada\nemail: ada@example.com\n"},
	}
	for _, tt := range tests {
		rootFormat = tt.format
		var buf bytes.Buffer
		if err := writeOutput(&buf, user, text); err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if buf.String() != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.format, tt.want, buf.String())
		}
	}
}

func TestExpandID(t *testing.T) {
	users := []api.User{{ID: "abc123"}, {ID: "abd456"}, {ID: "xyz789"}}

	tests := []struct {
		arg     string
		want    string
		wantErr error
	}{
		{arg: "abc123", want: "abc123"},
		{arg: "x", want: "xyz789"},
		{arg: "ABC", want: "abc123"},
		{arg: "nope", want: "nope"},
		{arg: "ab", wantErr: errAmbiguousID},
	}
	for _, tt := range tests {
		got, err := expandID(users, tt.arg)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("%q: expected %v, got %v", tt.arg, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tt.arg, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.arg, tt.want, got)
		}
	}
}

func TestExcludeID(t *testing.T) {
	got := excludeID([]string{"a", "owner", "b", "owner"}, "owner")
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("expected a,b, got %v", got)
	}
	if got := excludeID(nil, "x"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestShouldUseEditor(t *testing.T) {
	tests := []struct {
		name        string
		hasFlags    bool
		edit        bool
		noEdit      bool
		interactive bool
		want        bool
	}{
		{name: "interactive without flags", interactive: true, want: true},
		{name: "not interactive", want: false},
		{name: "field flags win", hasFlags: true, interactive: true, want: false},
		{name: "edit forces", hasFlags: true, edit: true, want: true},
		{name: "no-edit suppresses", noEdit: true, interactive: true, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldUseEditor(tc.hasFlags, tc.edit, tc.noEdit, tc.interactive); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLogLevelDefaults(t *testing.T) {
	tests := []struct {
		name  string
		level string
		tui   bool
		want  slog.Level
	}{
		{name: "cli default", want: slog.LevelError},
		{name: "tui default", tui: true, want: slog.LevelWarn},
		{name: "cli configured", level: "info", want: slog.LevelInfo},
		{name: "tui configured", level: "debug", tui: true, want: slog.LevelDebug},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{Log: config.Log{Level: tc.level}}
			got, err := logLevel(cfg, tc.tui)
			if err != nil {
				t.Fatalf("log level: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLoggerDropsWarningsAtCLIDefault(t *testing.T) {
	level, err := logLevel(&config.Config{}, false)
	if err != nil {
		t.Fatalf("log level: %v", err)
	}
	var buf bytes.Buffer
	newLogger(&buf, level).Warn("api request failed", "status", 500)
	if buf.Len() != 0 {
		t.Fatalf("expected no warning on stderr, got %q", buf.String())
	}
}
