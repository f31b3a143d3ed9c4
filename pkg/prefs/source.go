package prefs

import "context"

// Reader is the read half of a preference source.
type Reader interface {
	Read(ctx context.Context) (Map, error)
}

// Source reads and writes preference maps.  Write returns the canonical map
// as persisted by the source, which may differ from its input (a server may
// normalize values).
type Source interface {
	Reader
	Write(ctx context.Context, m Map) (Map, error)
}

// Chain is an ordered fallback across readers: a read is served by the first
// reader that succeeds, and the result is merged onto the defaults.  The
// final link of every chain is the static defaults map, so a chain read
// cannot fail.
type Chain []Reader

// Read returns the first successful map merged onto the defaults, along with
// the index of the reader that served it.  When every reader fails the
// defaults are returned with index -1.
func (ch Chain) Read(ctx context.Context) (Map, int) {
	for i, r := range ch {
		m, err := r.Read(ctx)
		if err != nil {
			continue
		}
		return Merge(m), i
	}
	return Defaults(), -1
}
