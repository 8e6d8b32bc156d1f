package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the profile slice this service reads: display data for group
// views and the wallet balance the payment path debits. Account creation
// and credentials live with the identity provider, not here.
type User struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DisplayName    string    `gorm:"column:display_name;not null"`
	HostelBlock    string    `gorm:"column:hostel_block"`
	DefaultAddress string    `gorm:"column:default_address"`
	WalletBalance  int       `gorm:"column:wallet_balance;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
