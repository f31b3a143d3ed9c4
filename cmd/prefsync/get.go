package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type getCmd struct{}

func (*getCmd) Name() string {
	return "get"
}

func (*getCmd) Synopsis() string {
	return "print preference values"
}

func (*getCmd) Usage() string {
	return `get [key ...]:
	print the named preference values, or the full map as JSON when no keys
	are given
`
}

func (g *getCmd) SetFlags(f *flag.FlagSet) {}

func (g *getCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c, _, err := buildCoordinator(ctx)
	if err != nil {
		return fatal("Couldn't build coordinator", err)
	}

	if f.NArg() == 0 {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(c.GetAll(ctx)); err != nil {
			return fatal("Couldn't encode preferences", err)
		}
		return subcommands.ExitSuccess
	}

	for _, key := range f.Args() {
		fmt.Printf("%s=%v\n", key, c.Get(ctx, key))
	}
	return subcommands.ExitSuccess
}
