package models

import (
	"gorm.io/gorm"
)

// User owns a cash balance alongside its credentials. Cash never goes
// negative; every change flows through a trade or the starting grant.
type User struct {
	gorm.Model
	Username string  `gorm:"uniqueIndex" json:"username"`
	Password string  `json:"-"`
	Cash     float64 `json:"cash"`
}
