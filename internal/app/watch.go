package app

import (
	"context"

	"github.com/dshills/veil/internal/watcher"
)

// Watch calls fn with the rendered view now and after every external
// change to the session's file, until ctx is cancelled.
func (app *Application) Watch(ctx context.Context, s *Session, fn func(view string)) error {
	path := s.doc.Path()
	if path == "" {
		return NewOperationError("watch", s.doc.Name(), ErrNoPath)
	}

	w, err := watcher.New(watcher.WithDebounce(app.config.Watch().Debounce))
	if err != nil {
		return NewOperationError("watch", path, err)
	}
	defer w.Close()

	if err := w.Add(path); err != nil {
		return NewOperationError("watch", path, err)
	}

	view, err := s.View(ctx)
	if err != nil {
		return err
	}
	fn(view)

	log := s.log.WithComponent("watch")
	log.Debug("watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if ev.Removed() {
				log.Warn("%s was removed", path)
				continue
			}
			changed, err := s.Reload()
			if err != nil {
				log.Error("%v", err)
				continue
			}
			if !changed {
				continue
			}
			log.Debug("reloaded after %s", ev.Op)
			view, err := s.View(ctx)
			if err != nil {
				log.Error("%v", err)
				continue
			}
			fn(view)

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			log.Warn("watcher: %v", err)
		}
	}
}
