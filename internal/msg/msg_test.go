package msg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndentWriter(t *testing.T) {
	var sb strings.Builder
	w := &IndentWriter{Indent: "  ", W: &sb}

	n, err := w.Write([]byte("-a\n+b\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = w.Write([]byte("c"))
	require.NoError(t, err)

	assert.Equal(t, "  -a\n  +b\n  c", sb.String())
}

func TestSetVerbose(t *testing.T) {
	defer SetVerbose(false)
	SetVerbose(true)
	assert.True(t, Verbose())
	SetVerbose(false)
	assert.False(t, Verbose())
}
