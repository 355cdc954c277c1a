package leavetype

import "time"

type LeaveType struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:varchar(500)"`
	ValidFrom   time.Time `gorm:"type:date;not null"`
	ValidTo     time.Time `gorm:"type:date;not null"`
}

func (LeaveType) TableName() string {
	return "leave_types"
}
