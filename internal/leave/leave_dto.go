package leave

type CreateLeaveRequest struct {
	LeaveTypeID uint   `json:"leave_type_id" binding:"required"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason" binding:"required,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=APPROVED REJECTED"`
}

type LeaveResponse struct {
	ID            uint    `json:"id"`
	EmployeeID    uint    `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	LeaveTypeID   uint    `json:"leave_type_id"`
	LeaveTypeName string  `json:"leave_type_name,omitempty"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalDays     int     `json:"total_days"`
	SubmittedAt   string  `json:"submitted_at"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`
	DecidedBy     *uint   `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
}
