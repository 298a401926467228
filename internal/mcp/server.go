package mcp

import (
	"context"
	"fmt"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/zonetile/internal/ipc"
)

const (
	ServerName    = "zonetile"
	ServerVersion = "0.1.0"
)

// daemonClient is the slice of the IPC client the MCP tools need.
// Tests substitute a fixture so no daemon socket is required.
type daemonClient interface {
	Ping() error
	GetState() (*ipc.StateData, error)
	GetResourceReport() (*ipc.ReportData, error)
	Trigger(p ipc.TriggerActionPayload) (*ipc.ActionResult, error)
	ResetResourceTracking() error
}

// Server is the MCP server exposing zone state over stdio. All tools
// proxy to the running daemon through its IPC socket.
type Server struct {
	mcpServer *mcpsdk.Server
	client    daemonClient
}

// NewServer creates a new MCP server backed by the daemon's IPC socket.
func NewServer() (*Server, error) {
	client := ipc.NewClient()
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}
	return newServerWithClient(client), nil
}

func newServerWithClient(client daemonClient) *Server {
	s := &Server{client: client}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_zone_state",
		Description: "Get the layout catalog and per-space zone assignments from the zonetile daemon. A space is one monitor/workspace pair keyed as <connector>:<workspace>.",
	}, s.handleGetZoneState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cycle_zone",
		Description: "Advance a space's selected zone within its current layout. Direction 1 cycles forward, -1 backward; selection wraps at either end.",
	}, s.handleCycleZone)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_layout",
		Description: "Assign a layout to a space, optionally with an initial zone index. Fails if the layout id is not in the catalog.",
	}, s.handleApplyLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resource_report",
		Description: "Fetch the daemon's resource leak report: handles still held by components that already reported teardown. Optionally reset tracking afterwards.",
	}, s.handleResourceReport)
}

func (s *Server) handleGetZoneState(_ context.Context, _ *mcpsdk.CallToolRequest, args GetZoneStateInput) (*mcpsdk.CallToolResult, GetZoneStateOutput, error) {
	state, err := s.client.GetState()
	if err != nil {
		return nil, GetZoneStateOutput{}, err
	}

	out := GetZoneStateOutput{
		ActiveSpace:  state.ActiveSpace,
		LastSelected: state.LastSelected,
	}
	for _, l := range state.Layouts {
		out.Layouts = append(out.Layouts, l.ID)
	}

	for key, st := range state.Spaces {
		if args.Space != "" && string(key) != args.Space {
			continue
		}
		out.Spaces = append(out.Spaces, ZoneStateInfo{
			Space:     string(key),
			LayoutID:  st.LayoutID,
			ZoneIndex: st.ZoneIndex,
		})
	}
	sort.Slice(out.Spaces, func(i, j int) bool {
		return out.Spaces[i].Space < out.Spaces[j].Space
	})

	return nil, out, nil
}

func (s *Server) handleCycleZone(_ context.Context, _ *mcpsdk.CallToolRequest, args CycleZoneInput) (*mcpsdk.CallToolResult, CycleZoneOutput, error) {
	direction := args.Direction
	if direction == 0 {
		direction = 1
	}
	if direction != 1 && direction != -1 {
		return nil, CycleZoneOutput{}, fmt.Errorf("direction must be 1 or -1, got %d", args.Direction)
	}

	result, err := s.client.Trigger(ipc.TriggerActionPayload{
		Action:    ipc.ActionCycleZone,
		Space:     args.Space,
		Direction: direction,
	})
	if err != nil {
		return nil, CycleZoneOutput{}, err
	}

	return nil, CycleZoneOutput{
		Space:     result.Space,
		ZoneIndex: result.ZoneIndex,
		ZoneName:  result.ZoneName,
	}, nil
}

func (s *Server) handleApplyLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args ApplyLayoutInput) (*mcpsdk.CallToolResult, ApplyLayoutOutput, error) {
	if args.LayoutID == "" {
		return nil, ApplyLayoutOutput{}, fmt.Errorf("layout_id is required")
	}

	result, err := s.client.Trigger(ipc.TriggerActionPayload{
		Action:    ipc.ActionSetCurrent,
		Space:     args.Space,
		LayoutID:  args.LayoutID,
		ZoneIndex: args.ZoneIndex,
	})
	if err != nil {
		return nil, ApplyLayoutOutput{}, err
	}

	return nil, ApplyLayoutOutput{
		Space:     result.Space,
		LayoutID:  result.LayoutID,
		ZoneIndex: result.ZoneIndex,
	}, nil
}

func (s *Server) handleResourceReport(_ context.Context, _ *mcpsdk.CallToolRequest, args ResourceReportInput) (*mcpsdk.CallToolResult, ResourceReportOutput, error) {
	report, err := s.client.GetResourceReport()
	if err != nil {
		return nil, ResourceReportOutput{}, err
	}

	out := ResourceReportOutput{
		Outstanding: report.Outstanding,
		Components:  report.Report.ComponentsWithLeaks,
	}
	if len(report.Report.LeakedByCategory) > 0 {
		out.Leaked = make(map[string]int, len(report.Report.LeakedByCategory))
		for cat, n := range report.Report.LeakedByCategory {
			out.Leaked[string(cat)] = n
		}
	}

	if args.Reset {
		if err := s.client.ResetResourceTracking(); err != nil {
			return nil, ResourceReportOutput{}, err
		}
	}

	return nil, out, nil
}
