package auth

// Account is the credential view of an employee row.
type Account struct {
	ID           uint `gorm:"primaryKey"`
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string `gorm:"column:password"`
	Role         string
}

func (Account) TableName() string {
	return "employees"
}
