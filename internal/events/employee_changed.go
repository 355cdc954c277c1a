package events

import "time"

const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

const (
	EventEmployeeCreated = "employee_created"
	EventEmployeeDeleted = "employee_deleted"
)

type EmployeeChangedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID uint      `json:"employee_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
