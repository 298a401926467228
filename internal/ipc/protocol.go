package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/zonetile/internal/layout"
	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/spatial"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing              CommandType = "PING"
	CommandGetState          CommandType = "GET_STATE"
	CommandGetResourceReport CommandType = "GET_RESOURCE_REPORT"
	CommandTriggerAction     CommandType = "TRIGGER_ACTION"
	CommandResetTracking     CommandType = "RESET_RESOURCE_TRACKING"
)

// ActionName identifies an action that TRIGGER_ACTION may dispatch.
// The set is closed: anything else is rejected with an error response.
type ActionName string

const (
	ActionCycleZone      ActionName = "cycle_zone"
	ActionSetCurrent     ActionName = "set_current"
	ActionReloadCatalog  ActionName = "reload_catalog"
	ActionCleanupOrphans ActionName = "cleanup_orphans"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// TriggerActionPayload carries the arguments of a TRIGGER_ACTION request.
// Space addresses the target "<connector>:<workspace>" slot; when empty
// the daemon targets the active space.
type TriggerActionPayload struct {
	Action    ActionName `json:"action"`
	Space     string     `json:"space,omitempty"`
	LayoutID  string     `json:"layout_id,omitempty"`
	ZoneIndex int        `json:"zone_index,omitempty"`
	Direction int        `json:"direction,omitempty"`
}

// SpaceState describes one space's resolved assignment in GET_STATE output.
type SpaceState struct {
	LayoutID  string `json:"layout_id"`
	ZoneIndex int    `json:"zone_index"`
}

// StateData represents the data returned by GET_STATE
type StateData struct {
	Layouts      []layout.Layout                 `json:"layouts"`
	Spaces       map[spatial.SpaceKey]SpaceState `json:"spaces"`
	LastSelected string                          `json:"last_selected,omitempty"`
	ActiveSpace  string                          `json:"active_space,omitempty"`
}

// ReportData represents the data returned by GET_RESOURCE_REPORT
type ReportData struct {
	Report      ledger.Report `json:"report"`
	Outstanding int           `json:"outstanding"`
}

// ActionResult represents the data returned by a successful TRIGGER_ACTION
type ActionResult struct {
	Space     string `json:"space,omitempty"`
	LayoutID  string `json:"layout_id,omitempty"`
	ZoneIndex int    `json:"zone_index,omitempty"`
	ZoneName  string `json:"zone_name,omitempty"`
	Removed   int    `json:"removed,omitempty"`
	Rejected  int    `json:"rejected,omitempty"`
}

// NewOKResponse creates a successful response with optional payload
func NewOKResponse(payload interface{}) (*Response, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response payload: %w", err)
		}
		raw = b
	}

	return &Response{
		Success: true,
		Payload: raw,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Success: false,
		Error:   errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
