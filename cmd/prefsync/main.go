// Package main implements a command line client for the preference
// synchronization component.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/PavelPerna/prefsync/pkg/coordinator"
	"github.com/PavelPerna/prefsync/pkg/identity"
	"github.com/PavelPerna/prefsync/pkg/local"
	"github.com/google/subcommands"
)

var (
	server = flag.String("server", "http://localhost:9500", "base URL of the identity service")
	data   = flag.String("data", "/tmp/prefsync", "local preference store path")
	user   = flag.String("user", "", "identity service account to log in as")
	pass   = flag.String("pass", "", "password for -user")
)

func main() {
	// Important top-level flags
	subcommands.ImportantFlag("server")
	subcommands.ImportantFlag("data")
	subcommands.ImportantFlag("user")

	// Setup standard helpers
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	// Setup my commands
	subcommands.Register(&getCmd{}, "")
	subcommands.Register(&setCmd{}, "")
	subcommands.Register(&watchCmd{}, "")

	// Parse and execute
	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// buildCoordinator wires up an initialized coordinator plus the local store
// it uses, honoring the top-level flags.
func buildCoordinator(ctx context.Context) (*coordinator.Coordinator, *local.Store, error) {
	probe, err := identity.NewProbe(*server)
	if err != nil {
		return nil, nil, err
	}
	if *user != "" {
		if err := probe.Login(ctx, *user, *pass); err != nil {
			return nil, nil, fmt.Errorf("login failed: %w", err)
		}
	}
	remote, err := identity.NewStore(*server, probe)
	if err != nil {
		return nil, nil, err
	}
	store, err := local.New(*data)
	if err != nil {
		return nil, nil, err
	}
	c := coordinator.New(probe, remote, store)
	c.Initialize(ctx)
	return c, store, nil
}

func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	return subcommands.ExitUsageError
}
