package choreography

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippedLibraryIsValid(t *testing.T) {
	t.Parallel()

	log, hook := test.NewNullLogger()
	seqs, err := ReadLibraryFile("../library/default.yaml", log)
	require.NoError(t, err)
	assert.Len(t, seqs, 5)
	assert.Empty(t, hook.AllEntries(), "every trigger compiles")

	o := newTestOrchestrator()
	require.NoError(t, o.Replace(seqs))
}
