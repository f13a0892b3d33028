package choreography

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherPublishesValidReloads(t *testing.T) {
	t.Parallel()

	log, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sequences: []\n"), 0o644))

	w, err := NewWatcher(path, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go w.Run(ctx, wg)
	defer func() {
		cancel()
		wg.Wait()
	}()

	require.NoError(t, os.WriteFile(path, []byte("version: 9.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(sampleLibrary), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case seqs := <-w.Updates():
			if len(seqs) == 0 {
				continue
			}
			assert.Len(t, seqs, 2)
			return
		case <-deadline:
			t.Fatal("no library update received")
		}
	}
}
