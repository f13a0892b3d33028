package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage("/hypertone/", "chaos=0.8", "", "", "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/hypertone/gesture/chaos", msg.Address)
	assert.Equal(t, []interface{}{float32(0.8), true}, msg.Arguments)

	msg, err = buildMessage("/hypertone", "", "", "", "", "*", "", "")
	require.NoError(t, err)
	assert.Equal(t, "/hypertone/sequence/stop", msg.Address)
	assert.Empty(t, msg.Arguments)

	msg, err = buildMessage("/hypertone", "", "", "", "bass_drop", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"bass_drop"}, msg.Arguments)

	_, err = buildMessage("/hypertone", "chaos", "", "", "", "", "", "")
	assert.Error(t, err)

	_, err = buildMessage("/hypertone", "", "", "", "", "", "", "")
	assert.Error(t, err)
}
