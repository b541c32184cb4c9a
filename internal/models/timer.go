package models

// Rest timer statuses.
const (
	TimerIdle    = "idle"
	TimerRunning = "running"
	TimerPaused  = "paused"
)

// RestTimerState is a snapshot of the rest timer. Not persisted.
type RestTimerState struct {
	IsActive        bool    `json:"isActive"`
	TimeRemaining   int     `json:"timeRemaining"`
	DefaultDuration int     `json:"defaultDuration"`
	ExerciseID      *string `json:"exerciseId"`
	SetID           *string `json:"setId"`
}

// Status derives idle/running/paused from the active flag and remaining time.
func (s RestTimerState) Status() string {
	switch {
	case s.IsActive:
		return TimerRunning
	case s.TimeRemaining > 0:
		return TimerPaused
	default:
		return TimerIdle
	}
}

// NetState is one connectivity observation.
type NetState struct {
	Connected         bool `json:"connected"`
	InternetReachable bool `json:"internetReachable"`
}

// Online reports whether the device is connected and the internet is reachable.
func (n NetState) Online() bool {
	return n.Connected && n.InternetReachable
}
