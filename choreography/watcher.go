package choreography

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"
)

// Watcher reparses a library file whenever it changes on disk and publishes the sequences that validated.
// Documents that fail to parse are logged and dropped, so the last good library stays in force.
type Watcher struct {
	path string
	log  logrus.FieldLogger
	w    *fsnotify.Watcher

	updates chan []Sequence
}

// NewWatcher watches the directory holding path, so editors that replace the file by rename are still seen.
func NewWatcher(path string, log logrus.FieldLogger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.WithStackTrace(err)
	}
	return &Watcher{
		path:    abs,
		log:     log.WithField("library", abs),
		w:       w,
		updates: make(chan []Sequence, 1),
	}, nil
}

// Updates delivers freshly parsed libraries. Only the latest pending library is kept.
func (lw *Watcher) Updates() <-chan []Sequence {
	return lw.updates
}

// Run forwards reloads until ctx is cancelled, then closes the underlying watcher.
func (lw *Watcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	defer lw.w.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-lw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != lw.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			lw.reload()
		case err, ok := <-lw.w.Errors:
			if !ok {
				return
			}
			lw.log.Warnf("Library watch error: %v", err)
		}
	}
}

func (lw *Watcher) reload() {
	seqs, err := ReadLibraryFile(lw.path, lw.log)
	if err != nil {
		lw.log.Errorf("Library reload rejected, keeping previous sequences: %v", err)
		return
	}

	select {
	case <-lw.updates:
	default:
	}
	lw.updates <- seqs
	lw.log.Infof("Library reloaded with %d sequences", len(seqs))
}
