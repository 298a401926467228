package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/zonetile/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !resp.Success {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.sendRequest(&Request{Command: CommandPing})
	return err
}

// GetState retrieves the daemon's layout catalog and per-space state.
func (c *Client) GetState() (*StateData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetState})
	if err != nil {
		return nil, err
	}

	var state StateData
	if err := json.Unmarshal(resp.Payload, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}

	return &state, nil
}

// GetResourceReport retrieves the ledger leak report.
func (c *Client) GetResourceReport() (*ReportData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetResourceReport})
	if err != nil {
		return nil, err
	}

	var report ReportData
	if err := json.Unmarshal(resp.Payload, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report data: %w", err)
	}

	return &report, nil
}

// Trigger dispatches a named action on the daemon.
func (c *Client) Trigger(p TriggerActionPayload) (*ActionResult, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{
		Command: CommandTriggerAction,
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	var result ActionResult
	if len(resp.Payload) > 0 {
		if err := json.Unmarshal(resp.Payload, &result); err != nil {
			return nil, fmt.Errorf("failed to parse action result: %w", err)
		}
	}

	return &result, nil
}

// ResetResourceTracking clears the daemon's resource ledger.
func (c *Client) ResetResourceTracking() error {
	_, err := c.sendRequest(&Request{Command: CommandResetTracking})
	return err
}
