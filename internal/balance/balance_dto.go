package balance

type BalanceEntryRequest struct {
	LeaveTypeID uint `json:"leave_type_id" binding:"required"`
	Balance     *int `json:"balance" binding:"required,min=0"`
}

type ReplaceBalancesRequest struct {
	Balances []BalanceEntryRequest `json:"balances" binding:"dive"`
}

type BalanceResponse struct {
	LeaveTypeID   uint   `json:"leave_type_id"`
	LeaveTypeName string `json:"leave_type_name"`
	Balance       int    `json:"balance"`
}
