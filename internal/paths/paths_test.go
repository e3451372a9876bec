package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDirsUseHome(t *testing.T) {
	home := filepath.Join("/tmp", "test-home")
	t.Setenv("HOME", home)

	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{name: "home", fn: HomeDir, want: home},
		{name: "state", fn: DefaultStateDir, want: filepath.Join(home, ".local", "state", "taskboard")},
		{name: "config", fn: DefaultConfigPath, want: filepath.Join(home, ".config", "taskboard", "config.toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWorkingDirReturnsCurrentDir(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	resolved, err := WorkingDir()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resolved != workDir {
		t.Fatalf("expected %s, got %s", workDir, resolved)
	}
}

func TestResolveWithDefault(t *testing.T) {
	t.Run("returns override when provided", func(t *testing.T) {
		result, err := ResolveWithDefault("/custom/path", DefaultStateDir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result != "/custom/path" {
			t.Fatalf("expected /custom/path, got %s", result)
		}
	})

	t.Run("propagates error from default function", func(t *testing.T) {
		_, err := ResolveWithDefault("", func() (string, error) {
			return "", os.ErrNotExist
		})
		if err != os.ErrNotExist {
			t.Fatalf("expected os.ErrNotExist, got %v", err)
		}
	})
}
