package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	EventLeaveRequested = "leave_requested"
	EventLeaveCancelled = "leave_cancelled"
	EventLeaveApproved  = "leave_approved"
	EventLeaveRejected  = "leave_rejected"
)

type LeaveStatusChangedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	LeaveRequestID uint      `json:"leave_request_id"`
	EmployeeID     uint      `json:"employee_id"`
	LeaveTypeID    uint      `json:"leave_type_id"`
	Status         string    `json:"status"`
	Days           int       `json:"days"`
	ActorID        uint      `json:"actor_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
