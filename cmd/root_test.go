package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/log"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd(log.NewNop())
	assert.Equal(t, "apotek", root.Use)

	want := []string{"chat", "ask", "serve", "sessions", "mcp", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, "command %q not registered", name)
		assert.NotEqual(t, root, cmd, "command %q not registered", name)
	}
}

func TestSessionsSubcommands(t *testing.T) {
	root := newRootCmd(log.NewNop())
	for _, path := range [][]string{{"sessions", "list"}, {"sessions", "delete"}} {
		_, _, err := root.Find(path)
		require.NoError(t, err)
	}
}
