package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce sync.Once
	tbPath    string
	buildErr  error
)

// BuildTB builds the tb binary once and returns its path.
func BuildTB(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "tb-bin-")
		if err != nil {
			buildErr = err
			return
		}

		tbPath = filepath.Join(binDir, "tb")
		cmd := exec.Command("go", "build", "-o", tbPath, "./cmd/tb")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build tb: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return tbPath
}

// SetupScriptEnv points the script at the tb binary, a fresh home
// directory and a fresh fake API server.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("TB", BuildTB(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)

	url, shutdown := NewFakeAPI().Serve()
	env.Defer(shutdown)
	env.Setenv("TASKBOARD_API_URL", url)
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdEntityID reads a JSON entity or list of entities from FILE, finds the
// one whose FIELD equals VALUE, and stores its _id in VAR.
func CmdEntityID(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("entityid does not support negation")
	}
	if len(args) != 4 {
		ts.Fatalf("usage: entityid FILE FIELD VALUE VAR")
	}

	data := strings.TrimSpace(ts.ReadFile(args[0]))
	var items []map[string]any
	if strings.HasPrefix(data, "{") {
		var item map[string]any
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			ts.Fatalf("parse entity: %v", err)
		}
		items = append(items, item)
	} else if err := json.Unmarshal([]byte(data), &items); err != nil {
		ts.Fatalf("parse entity list: %v", err)
	}

	field, value := args[1], args[2]
	for _, item := range items {
		if fmt.Sprint(item[field]) == value {
			id, ok := item["_id"].(string)
			if !ok {
				ts.Fatalf("entity with %s=%q has no _id", field, value)
			}
			ts.Setenv(args[3], id)
			return
		}
	}

	ts.Fatalf("entity with %s=%q not found", field, value)
}

// Commands returns the custom testscript commands.
func Commands() map[string]func(*testscript.TestScript, bool, []string) {
	return map[string]func(*testscript.TestScript, bool, []string){
		"envset":   CmdEnvSet,
		"entityid": CmdEntityID,
	}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
