package leave

import "time"

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

type LeaveRequest struct {
	ID          uint      `gorm:"primaryKey"`
	EmployeeID  uint      `gorm:"not null;index:idx_leave_requests_employee"`
	LeaveTypeID uint      `gorm:"not null"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	SubmittedAt time.Time `gorm:"not null"`
	Reason      string    `gorm:"type:varchar(1000);not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	DecidedBy   *uint
	DecidedAt   *time.Time
	Version     int `gorm:"not null;default:1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l LeaveRequest) TotalDays() int {
	return DurationDays(l.StartDate, l.EndDate)
}

// IsTerminal reports whether the request can no longer change status.
func (l LeaveRequest) IsTerminal() bool {
	return l.Status != StatusPending
}

// LeaveRow is a request joined with the employee and leave type it refers to.
type LeaveRow struct {
	LeaveRequest
	EmployeeName  string
	LeaveTypeName string
}
