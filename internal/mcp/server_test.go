package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apotek/apotek/internal/i18n"
	"github.com/apotek/apotek/internal/log"
	"github.com/apotek/apotek/internal/pharmacy"
	"github.com/apotek/apotek/internal/tools"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	store, err := pharmacy.Open(pharmacy.Config{Logger: log.NewNop()})
	require.NoError(t, err)
	kit, err := tools.NewKit(store, log.NewNop())
	require.NoError(t, err)
	return Config{
		Name:    "apotek-test",
		Version: "0.0.0",
		Kit:     kit,
		Logger:  log.NewNop(),
	}
}

// connectServer starts the server and an SDK client over in-memory
// transports, returning the client session.
func connectServer(t *testing.T, cfg Config) *mcp.ClientSession {
	t.Helper()

	server, err := NewServer(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

func TestNewServerValidation(t *testing.T) {
	cfg := testConfig(t)

	t.Run("missing name", func(t *testing.T) {
		bad := cfg
		bad.Name = ""
		_, err := NewServer(bad)
		assert.Error(t, err)
	})

	t.Run("missing kit", func(t *testing.T) {
		bad := cfg
		bad.Kit = nil
		_, err := NewServer(bad)
		assert.Error(t, err)
	})
}

func TestListTools(t *testing.T) {
	session := connectServer(t, testConfig(t))

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description, "tool %q has no description", tool.Name)
	}
	sort.Strings(names)

	want := append([]string(nil), tools.ToolNames()...)
	sort.Strings(want)
	assert.Equal(t, want, names)
}

func TestCallToolSuccess(t *testing.T) {
	session := connectServer(t, testConfig(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolCheckStock,
		Arguments: map[string]any{"name": "Acamol"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &data))
	assert.Equal(t, true, data["in_stock"])
	assert.Equal(t, float64(150), data["quantity"])
}

func TestCallToolBusinessError(t *testing.T) {
	session := connectServer(t, testConfig(t))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolMedicationInfo,
		Arguments: map[string]any{"name": "Placebo"},
	})
	require.NoError(t, err, "business errors must not become protocol errors")
	require.True(t, result.IsError)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "not_found")
}

func TestCallToolLocalized(t *testing.T) {
	cfg := testConfig(t)
	cfg.Language = i18n.LangHE
	session := connectServer(t, cfg)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      tools.ToolMedicationInfo,
		Arguments: map[string]any{"name": "Acamol"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(*mcp.TextContent)
	assert.Contains(t, text.Text, "אקמול")
}
