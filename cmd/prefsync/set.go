package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/google/subcommands"
)

type setCmd struct{}

func (*setCmd) Name() string {
	return "set"
}

func (*setCmd) Synopsis() string {
	return "store a preference value"
}

func (*setCmd) Usage() string {
	return `set <key> <value>:
	store a preference; "true"/"false" values are stored as booleans
`
}

func (s *setCmd) SetFlags(f *flag.FlagSet) {}

func (s *setCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	key := f.Arg(0)
	raw := f.Arg(1)
	if key == "" || f.NArg() != 2 {
		return usage("key and value required")
	}

	var value any = raw
	switch raw {
	case "true":
		value = true
	case "false":
		value = false
	}
	if key == prefs.KeyLanguage && !prefs.ValidLanguage(raw) {
		return usage(fmt.Sprintf("unsupported language %q", raw))
	}

	c, _, err := buildCoordinator(ctx)
	if err != nil {
		return fatal("Couldn't build coordinator", err)
	}
	if err := c.Set(ctx, key, value); err != nil {
		return fatal("Couldn't store preference", err)
	}
	fmt.Printf("%s=%v (%v strategy)\n", key, value, c.Strategy())
	return subcommands.ExitSuccess
}
