package main

import (
	"testing"

	"github.com/amonks/taskboard/internal/testsupport"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestUserScripts(t *testing.T) {
	runScripts(t, "testdata/users")
}

func TestBoardScripts(t *testing.T) {
	runScripts(t, "testdata/boards")
}

func TestTaskScripts(t *testing.T) {
	runScripts(t, "testdata/tasks")
}

func TestCommentScripts(t *testing.T) {
	runScripts(t, "testdata/comments")
}

func runScripts(t *testing.T, dir string) {
	testscript.Run(t, testscript.Params{
		Dir: dir,
		Setup: func(env *testscript.Env) error {
			return testsupport.SetupScriptEnv(t, env)
		},
		Cmds: testsupport.Commands(),
	})
}
