package employee

import "go-leave/internal/balance"

type RegisterEmployeeRequest struct {
	FirstName     string                        `json:"first_name" binding:"required,max=50"`
	LastName      string                        `json:"last_name" binding:"required,max=50"`
	Email         string                        `json:"email" binding:"required,email,max=100"`
	Department    string                        `json:"department" binding:"required,max=100"`
	Designation   string                        `json:"designation" binding:"required,max=100"`
	ContactNo     string                        `json:"contact_no" binding:"required,max=15"`
	Password      string                        `json:"password" binding:"required,min=6,max=100"`
	LeaveBalances []balance.BalanceEntryRequest `json:"leave_balances" binding:"dive"`
}

type UpdateEmployeeRequest struct {
	FirstName     string                        `json:"first_name" binding:"required,max=50"`
	LastName      string                        `json:"last_name" binding:"required,max=50"`
	Email         string                        `json:"email" binding:"required,email,max=100"`
	Department    string                        `json:"department" binding:"required,max=100"`
	Designation   string                        `json:"designation" binding:"required,max=100"`
	ContactNo     string                        `json:"contact_no" binding:"required,max=15"`
	LeaveBalances []balance.BalanceEntryRequest `json:"leave_balances" binding:"dive"`
}

type EmployeeResponse struct {
	ID                uint                      `json:"id"`
	FirstName         string                    `json:"first_name"`
	LastName          string                    `json:"last_name"`
	FullName          string                    `json:"full_name"`
	Email             string                    `json:"email"`
	Department        string                    `json:"department"`
	Designation       string                    `json:"designation"`
	ContactNo         string                    `json:"contact_no"`
	Role              string                    `json:"role"`
	LeaveBalances     []balance.BalanceResponse `json:"leave_balances"`
	ProfilePictureURL string                    `json:"profile_picture_url"`
}

// PictureResponse is returned for an uploaded picture or the generated
// fallback when the employee has none.
type PictureResponse struct {
	URL       string `json:"url"`
	Generated bool   `json:"generated"`
}
