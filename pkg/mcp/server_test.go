package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/session"
)

func testSession() *session.Session {
	ds := model.Dataset{Tasks: []model.Task{
		{
			Project:  "Alpha",
			Owner:    "Ana",
			Start:    model.NewDate(2024, 1, 1).Ptr(),
			End:      model.NewDate(2024, 1, 21).Ptr(),
			Status:   model.StatusInProgress,
			Progress: model.Float(30),
		},
		{
			Project:  "Beta",
			Owner:    "Bo",
			Start:    model.NewDate(2024, 2, 1).Ptr(),
			End:      model.NewDate(2024, 3, 1).Ptr(),
			Status:   model.StatusPlanned,
			Progress: model.Float(0),
		},
	}}
	return session.New(ds, session.AsOf(model.NewDate(2024, 1, 11)))
}

// connect starts the server on an in-memory transport and returns a client
// session.
func connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	server := New(testSession(), nil).MCP("test")
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	require.False(t, res.IsError, "tool %s returned an error", name)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "tool %s returned no text content", name)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func TestListTools(t *testing.T) {
	cs := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"planning_summary", "planning_list", "planning_top", "planning_breakdown"}, names)
}

func TestSummaryTool(t *testing.T) {
	cs := connect(t)
	var out SummaryOutput
	callTool(t, cs, "planning_summary", map[string]any{}, &out)

	assert.Equal(t, "2024-01-11", out.ReferenceDate)
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Delayed)
	assert.Equal(t, 15.0, out.Summary.MeanProgress)
}

func TestListTool(t *testing.T) {
	cs := connect(t)
	var out RowsOutput
	callTool(t, cs, "planning_list", map[string]any{"alert": "late"}, &out)

	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, 1, row.Row)
	assert.Equal(t, "Alpha", row.Project)
	assert.Equal(t, "2024-01-01", row.Start)
	assert.True(t, row.Late)
	require.NotNil(t, row.Delay)
	assert.Equal(t, 20.0, *row.Delay)

	callTool(t, cs, "planning_list", map[string]any{"owners": []string{"Bo"}}, &out)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, 2, out.Rows[0].Row)
}

func TestListToolRejectsAlert(t *testing.T) {
	cs := connect(t)
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "planning_list",
		Arguments: map[string]any{"alert": "soon"},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestTopAndBreakdownTools(t *testing.T) {
	cs := connect(t)

	var top RowsOutput
	callTool(t, cs, "planning_top", map[string]any{"count": 1}, &top)
	require.Len(t, top.Rows, 1)
	assert.Equal(t, "Alpha", top.Rows[0].Project)

	var bd BreakdownOutput
	callTool(t, cs, "planning_breakdown", map[string]any{}, &bd)
	assert.Equal(t, []session.Cell{
		{Owner: "Ana", Status: model.StatusInProgress, Count: 1},
		{Owner: "Bo", Status: model.StatusPlanned, Count: 1},
	}, bd.Cells)
}
