package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds only the fields the settlement core touches (spec §1/§3):
// identity, wallet address, and the virtual balance ledger. Referral,
// social, and admin columns belong to out-of-scope collaborators.
type User struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	WalletAddress  string          `gorm:"uniqueIndex;not null" json:"wallet_address"`
	VirtualBalance decimal.Decimal `gorm:"type:decimal(18,8);default:1000.00" json:"virtual_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
