package adb

import (
	"context"
	"time"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
)

// Events implements platform.EventSource by polling the stack list and
// emitting one event per window change. The channel closes when ctx ends.
// An unreachable device is not an error: polling continues and every window
// is reported as added once the device answers.
func (b *Backend) Events(ctx context.Context) (<-chan platform.Event, error) {
	b.cache.invalidate()
	prev, err := b.listAll(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("initial poll failed, waiting for device")
		prev = nil
	}

	ch := make(chan platform.Event, 16)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(b.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			b.cache.invalidate()
			curr, err := b.listAll(ctx)
			if err != nil {
				b.log.Debug().Err(err).Msg("poll failed")
				continue
			}
			for _, change := range model.DiffWindows(prev, curr) {
				ev := eventFor(change)
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
			prev = curr
		}
	}()
	return ch, nil
}

func eventFor(change model.WindowChange) platform.Event {
	kind := platform.EventWindowsChanged
	if change.Type == model.ChangeChanged {
		kind = platform.EventWindowStateChanged
	}
	return platform.Event{
		DisplayID: change.Window.DisplayID,
		Package:   change.Package,
		Kind:      kind,
	}
}
