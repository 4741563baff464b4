package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalRequest is a pending payout request. Submitting one never debits
// the balance; settlement is an administrative step outside the bot.
type WithdrawalRequest struct {
	ID             uint            `gorm:"primaryKey"`
	UserID         int64           `gorm:"not null;index"` // telegram id
	Amount         decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	WalletProvider string          `gorm:"size:32;not null"`
	WalletAccount  string          `gorm:"size:32;not null"`
	Status         string          `gorm:"size:16;not null;default:'pending'"`
	CreatedAt      time.Time
}
