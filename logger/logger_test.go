package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		level    string
		expected logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"nonsense", logrus.InfoLevel},
	}

	for _, testCase := range testCases {
		l := newLogger(testCase.level)
		assert.Equal(t, testCase.expected, l.GetLevel(), "level %q", testCase.level)
	}
}

func TestGetProjectLoggerIsShared(t *testing.T) {
	t.Parallel()

	require.Same(t, GetProjectLogger(), GetProjectLogger())
}
