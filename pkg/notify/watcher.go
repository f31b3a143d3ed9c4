package notify

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/PavelPerna/prefsync/pkg/prefs"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BlobSource describes the durable local substrate being watched; see
// local.Store.
type BlobSource interface {
	// BlobPath returns the path of the durable substrate file.
	BlobPath() string

	// Owns reports whether data was written by this process.
	Owns(data []byte) bool
}

// Watcher observes the durable substrate for writes made by other processes
// and dispatches the parsed preference map to a Hub.  Writes originating in
// this process are suppressed to avoid feedback loops.  Rapid consecutive
// writes may coalesce to the last value only; there is no ordering
// guarantee beyond the platform's native event order.
type Watcher struct {
	hub   *Hub[prefs.Map]
	store BlobSource
	fsw   *fsnotify.Watcher
	slog  zerolog.Logger
}

// NewWatcher creates a Watcher feeding hub from the store's blob file.  The
// containing directory is watched rather than the file itself, since
// atomic-rename writes replace the inode.
func NewWatcher(hub *Hub[prefs.Map], store BlobSource) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(store.BlobPath())); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		hub:   hub,
		store: store,
		fsw:   fsw,
		slog:  log.With().Str("module", "notify").Str("path", store.BlobPath()).Logger(),
	}, nil
}

// Start processes filesystem events until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) {
	defer func() {
		_ = w.fsw.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.slog.Warn().Err(err).Msg("Watch error")
		}
	}
}

// handle filters events down to foreign writes of the blob file and
// dispatches the parsed map.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Name != w.store.BlobPath() {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Rename) {
		return
	}
	data, err := os.ReadFile(w.store.BlobPath())
	if err != nil {
		return
	}
	if w.store.Owns(data) {
		// Own write; same-context changes are not replayed.
		return
	}
	var m prefs.Map
	if err := json.Unmarshal(data, &m); err != nil {
		w.slog.Warn().Err(err).Msg("Ignoring unparseable substrate update")
		return
	}
	w.hub.Dispatch(prefs.Merge(m))
}
