// Package mcp exposes the planning session to MCP clients as read-only
// tools.
package mcp

import (
	"context"
	"fmt"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harrisonrobin/planboard/pkg/model"
	"github.com/harrisonrobin/planboard/pkg/session"
	"github.com/harrisonrobin/planboard/pkg/util"
	"github.com/harrisonrobin/planboard/pkg/variance"
)

const serverInstructions = `planboard serves a project planning table. Every row has a reported
progress and, as of the reference date, an expected progress (share of the
planned duration elapsed) and a delay (expected minus reported, never
negative). Use planning_summary for the KPIs, planning_list to filter rows,
planning_top for the largest delays and planning_breakdown for counts per
owner and status.`

// Row is one planning row as returned by the tools.
type Row struct {
	Row      int               `json:"row" jsonschema:"1-based row number in the table"`
	ID       string            `json:"id"`
	Project  string            `json:"project"`
	Owner    string            `json:"owner"`
	Start    string            `json:"start,omitempty" jsonschema:"start date YYYY-MM-DD"`
	End      string            `json:"end,omitempty" jsonschema:"end date YYYY-MM-DD"`
	Status   string            `json:"status"`
	Progress *float64          `json:"progress,omitempty" jsonschema:"reported progress in percent"`
	Expected *float64          `json:"expected,omitempty" jsonschema:"expected progress in percent"`
	Delay    *float64          `json:"delay,omitempty" jsonschema:"expected minus reported progress, at least 0"`
	Late     bool              `json:"late"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type SummaryInput struct{}

type SummaryOutput struct {
	ReferenceDate string           `json:"reference_date"`
	Summary       variance.Summary `json:"summary"`
}

type ListInput struct {
	Owners   []string `json:"owners,omitempty" jsonschema:"keep rows of these owners; empty keeps all"`
	Statuses []string `json:"statuses,omitempty" jsonschema:"keep rows with these statuses; empty keeps all"`
	Alert    string   `json:"alert,omitempty" jsonschema:"late keeps delayed rows, ok keeps the others"`
}

type TopInput struct {
	Count int `json:"count,omitempty" jsonschema:"number of rows, default 5"`
}

type RowsOutput struct {
	Rows []Row `json:"rows"`
}

type BreakdownInput struct{}

type BreakdownOutput struct {
	Cells []session.Cell `json:"cells"`
}

// Server answers tool calls from one shared session.
type Server struct {
	mu     sync.Mutex
	sess   *session.Session
	logger *zap.Logger
}

// New wraps s. The session must not be used elsewhere afterwards.
func New(s *session.Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sess: s, logger: logger}
}

// MCP builds the MCP server with the planning tools registered.
func (s *Server) MCP(version string) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "planboard",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "planning_summary",
		Description: "Row count, count per status, mean reported progress and delayed row count",
	}, s.summary)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "planning_list",
		Description: "Planning rows with expected progress and delay, filtered by owner, status and alert",
	}, s.list)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "planning_top",
		Description: "Rows with the largest delay, largest first",
	}, s.top)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "planning_breakdown",
		Description: "Row counts per owner and status",
	}, s.breakdown)
	return server
}

func (s *Server) summary(ctx context.Context, req *sdkmcp.CallToolRequest, in SummaryInput) (*sdkmcp.CallToolResult, SummaryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Refresh()
	return nil, SummaryOutput{ReferenceDate: s.sess.RefDate().String(), Summary: s.sess.Summary()}, nil
}

func (s *Server) list(ctx context.Context, req *sdkmcp.CallToolRequest, in ListInput) (*sdkmcp.CallToolResult, RowsOutput, error) {
	alert := session.Alert(in.Alert)
	switch alert {
	case session.AlertAll, session.AlertLate, session.AlertOK:
	default:
		return nil, RowsOutput{}, fmt.Errorf("invalid alert %q, use late or ok", in.Alert)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Refresh()
	f := session.Filter{Owners: in.Owners, Statuses: in.Statuses, Alert: alert}
	rows := s.rows(s.sess.Filtered(f))
	s.logger.Debug("planning_list", zap.Int("rows", len(rows)))
	return nil, RowsOutput{Rows: rows}, nil
}

func (s *Server) top(ctx context.Context, req *sdkmcp.CallToolRequest, in TopInput) (*sdkmcp.CallToolResult, RowsOutput, error) {
	n := in.Count
	if n <= 0 {
		n = 5
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Refresh()
	return nil, RowsOutput{Rows: s.rows(s.sess.TopDelays(n))}, nil
}

func (s *Server) breakdown(ctx context.Context, req *sdkmcp.CallToolRequest, in BreakdownInput) (*sdkmcp.CallToolResult, BreakdownOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil, BreakdownOutput{Cells: s.sess.Breakdown()}, nil
}

// rows numbers tasks by their position in the session. Callers hold mu.
func (s *Server) rows(tasks []model.Task) []Row {
	pos := make(map[string]int, s.sess.Len())
	for i, t := range s.sess.Tasks() {
		pos[t.ID] = i + 1
	}
	out := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Row{
			Row:      pos[t.ID],
			ID:       t.ID,
			Project:  t.Project,
			Owner:    t.Owner,
			Start:    util.FormatDate(t.Start),
			End:      util.FormatDate(t.End),
			Status:   t.Status,
			Progress: t.Progress,
			Expected: t.Expected,
			Delay:    t.Delay,
			Late:     t.Late(),
			Extra:    t.Extra,
		})
	}
	return out
}
