package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// taskFlagAliases maps accepted short spellings onto the canonical task
// flag names. Aliases do not appear in usage output.
var taskFlagAliases = map[string]string{
	"desc":   "description",
	"assign": "assignee",
}

func addTaskFlagAliases(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		setFlagAliases(cmd.Flags(), taskFlagAliases)
	}
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		return normalize(f, name)
	})
}
