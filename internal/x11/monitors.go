package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	Index     int
	Connector string
	X         int
	Y         int
	Width     int
	Height    int
}

// GetMonitors retrieves all active monitors using XRandR. When an output
// name is unavailable the connector falls back to "monitor-<index>" so
// space keys stay stable and well-formed.
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		connector := FallbackConnector(len(monitors))
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil && len(outputInfo.Name) > 0 {
			connector = string(outputInfo.Name)
		}

		monitors = append(monitors, Monitor{
			Index:     i,
			Connector: connector,
			X:         int(crtcInfo.X),
			Y:         int(crtcInfo.Y),
			Width:     int(crtcInfo.Width),
			Height:    int(crtcInfo.Height),
		})
	}

	if len(monitors) == 0 {
		return nil, fmt.Errorf("no active monitors found")
	}
	return monitors, nil
}

// FallbackConnector synthesizes a connector id for a monitor whose
// output name cannot be queried.
func FallbackConnector(index int) string {
	return fmt.Sprintf("monitor-%d", index)
}

// PrimaryConnector returns the connector id of the primary output,
// falling back to the first active monitor when RandR reports none.
func (c *Connection) PrimaryConnector() (string, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return "", err
	}

	if reply, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil && reply.Output != 0 {
		resources, rerr := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
		if rerr == nil {
			if info, ierr := randr.GetOutputInfo(c.XUtil.Conn(), reply.Output, resources.ConfigTimestamp).Reply(); ierr == nil && len(info.Name) > 0 {
				return string(info.Name), nil
			}
		}
	}
	return monitors[0].Connector, nil
}

// ActiveConnector returns the connector of the monitor containing the
// currently focused window, falling back to the first monitor when no
// window is focused or its geometry cannot be resolved.
func (c *Connection) ActiveConnector() (string, error) {
	monitors, err := c.GetMonitors()
	if err != nil {
		return "", err
	}

	if activeWin, err := ewmh.ActiveWindowGet(c.XUtil); err == nil && activeWin != 0 {
		if geom, err := c.windowGeometry(activeWin); err == nil {
			cx := geom.X + geom.Width/2
			cy := geom.Y + geom.Height/2
			for _, m := range monitors {
				if cx >= m.X && cx < m.X+m.Width && cy >= m.Y && cy < m.Y+m.Height {
					return m.Connector, nil
				}
			}
		}
	}
	return monitors[0].Connector, nil
}
