package balance

type LeaveBalance struct {
	ID          uint `gorm:"primaryKey"`
	EmployeeID  uint `gorm:"not null;uniqueIndex:uq_leave_balance_employee_type"`
	LeaveTypeID uint `gorm:"not null;uniqueIndex:uq_leave_balance_employee_type"`
	Balance     int  `gorm:"not null"`
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}

// BalanceRow is a balance joined with its leave type name.
type BalanceRow struct {
	ID            uint
	EmployeeID    uint
	LeaveTypeID   uint
	LeaveTypeName string
	Balance       int
}
