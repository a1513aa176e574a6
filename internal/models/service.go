package models

import "time"

// Status constants
const (
	StatusRunning      = "running"
	StatusStopped      = "stopped"
	StatusFailed       = "failed"
	StatusNotInstalled = "not-installed"
)

// ServiceState is the init system's view of a unit at the moment it was
// queried. It is never cached.
type ServiceState struct {
	Name        string    `json:"name"`
	Registered  bool      `json:"registered"`
	Enabled     bool      `json:"enabled"`
	Active      bool      `json:"active"`
	ActiveState string    `json:"activeState,omitempty"` // active, inactive, failed, activating...
	SubState    string    `json:"subState,omitempty"`    // running, dead, exited...
	MainPID     int       `json:"mainPid,omitempty"`     // 0 when no process
	ActiveSince time.Time `json:"activeSince,omitzero"`  // zero when never entered active
}

// Status collapses the state into one of the Status constants.
func (s ServiceState) Status() string {
	switch {
	case !s.Registered:
		return StatusNotInstalled
	case s.Active:
		return StatusRunning
	case s.ActiveState == "failed":
		return StatusFailed
	default:
		return StatusStopped
	}
}

// HasPID reports whether the init system reported a main process.
func (s ServiceState) HasPID() bool { return s.MainPID > 0 }
