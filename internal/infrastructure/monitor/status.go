package monitor

import "time"

// OutboxStatus describes the local queue of undelivered realtime changes.
type OutboxStatus struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
}

// Status is the result of the last probe round.
type Status struct {
	Database  bool         `json:"postgresql"`
	ChangeBus bool         `json:"redis"`
	Outbox    OutboxStatus `json:"outbox"`
	CheckedAt time.Time    `json:"checked_at"`
}

// Serving reports whether requests can be answered. Without the change bus
// mutations still commit; their changes wait in the outbox.
func (s Status) Serving() bool {
	return s.Database
}

// Realtime reports whether live sessions receive changes right now.
func (s Status) Realtime() bool {
	return s.ChangeBus && s.Outbox.Pending == 0
}
