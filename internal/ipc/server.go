package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/1broseidon/zonetile/internal/ledger"
	"github.com/1broseidon/zonetile/internal/runtimepath"
)

// Controller is the daemon-side surface the IPC server dispatches into.
type Controller interface {
	State() (*StateData, error)
	ResourceReport() (*ReportData, error)
	Trigger(p TriggerActionPayload) (*ActionResult, error)
	ResetResourceTracking()
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctrl         Controller
	ledger       *ledger.Ledger
	handle       ledger.HandleID
	shuttingDown bool
	shutdownMu   sync.Mutex
}

const serverOwner = "ipc"

// NewServer creates a new IPC server
func NewServer(ctrl Controller, ldg *ledger.Ledger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		ledger:     ldg,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.handle = s.ledger.Acquire(ledger.CategorySignal, serverOwner)

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := HandleCommand(s.ctrl, req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// HandleCommand processes an IPC command and returns a response.
func HandleCommand(ctrl Controller, req *Request) *Response {
	switch req.Command {
	case CommandPing:
		resp, _ := NewOKResponse(nil)
		return resp
	case CommandGetState:
		return handleGetState(ctrl)
	case CommandGetResourceReport:
		return handleGetResourceReport(ctrl)
	case CommandTriggerAction:
		return handleTriggerAction(ctrl, req.Payload)
	case CommandResetTracking:
		ctrl.ResetResourceTracking()
		resp, _ := NewOKResponse(nil)
		return resp
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func handleGetState(ctrl Controller) *Response {
	state, err := ctrl.State()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get state: %v", err))
	}
	resp, _ := NewOKResponse(state)
	return resp
}

func handleGetResourceReport(ctrl Controller) *Response {
	report, err := ctrl.ResourceReport()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get resource report: %v", err))
	}
	resp, _ := NewOKResponse(report)
	return resp
}

func handleTriggerAction(ctrl Controller, payload json.RawMessage) *Response {
	var p TriggerActionPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid trigger payload: %v", err))
		}
	}

	switch p.Action {
	case ActionCycleZone, ActionSetCurrent, ActionReloadCatalog, ActionCleanupOrphans:
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown action: %s", p.Action))
	}

	result, err := ctrl.Trigger(p)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(result)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server and reports its teardown
// to the ledger. Safe to call more than once.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.ledger.Release(s.handle)
	}
	s.ledger.ComponentTornDown(serverOwner)
	os.Remove(s.socketPath)
}
