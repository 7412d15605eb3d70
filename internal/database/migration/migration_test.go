package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSourceURL(t *testing.T) {
	url, err := SourceURL("migrations")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "file:///"))
	assert.True(t, strings.HasSuffix(url, "/migrations"))
}

func TestDownRejectsNonPositiveSteps(t *testing.T) {
	err := Down("postgres://localhost/none", "migrations", 0, false, zap.NewNop())
	assert.Error(t, err)
}

func TestLoggerVerbose(t *testing.T) {
	assert.True(t, NewLogger(zap.NewNop(), true).Verbose())
	assert.False(t, NewLogger(zap.NewNop(), false).Verbose())
}
