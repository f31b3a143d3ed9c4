package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/PavelPerna/prefsync/pkg/local"
	"github.com/PavelPerna/prefsync/pkg/notify"
	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/google/subcommands"
	"github.com/gorilla/websocket"
)

type watchCmd struct {
	remote bool
}

func (*watchCmd) Name() string {
	return "watch"
}

func (*watchCmd) Synopsis() string {
	return "print preference changes as they happen"
}

func (*watchCmd) Usage() string {
	return `watch [-remote]:
	follow changes to the local preference store made by other processes;
	with -remote, follow the identity daemon's preference update feed instead
`
}

func (w *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&w.remote, "remote", false, "follow the identity daemon feed")
}

func (w *watchCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if w.remote {
		return w.watchRemote(ctx)
	}
	return w.watchLocal(ctx)
}

// watchLocal follows foreign-process writes to the local substrate.
func (w *watchCmd) watchLocal(ctx context.Context) subcommands.ExitStatus {
	store, err := local.New(*data)
	if err != nil {
		return fatal("Couldn't open local store", err)
	}
	hub := notify.NewHub[prefs.Map]()
	go hub.Start(ctx)
	hub.OnChange(func(m prefs.Map) {
		printJSON(m)
	})
	watcher, err := notify.NewWatcher(hub, store)
	if err != nil {
		return fatal("Couldn't start watcher", err)
	}
	watcher.Start(ctx)
	return subcommands.ExitSuccess
}

// watchRemote follows the daemon's websocket preference feed.
func (w *watchCmd) watchRemote(ctx context.Context) subcommands.ExitStatus {
	base, err := url.Parse(*server)
	if err != nil {
		return fatal("Bad server URL", err)
	}
	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	}
	wsURL := base.JoinPath("/api/v1/monitor/preferences")
	if *user != "" {
		wsURL.RawQuery = url.Values{"user": {*user}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return fatal("Couldn't connect to monitor feed", err)
	}
	defer func() {
		_ = conn.Close()
	}()

	for {
		var update map[string]any
		if err := conn.ReadJSON(&update); err != nil {
			return fatal("Feed closed", err)
		}
		printJSON(update)
	}
}

func printJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
