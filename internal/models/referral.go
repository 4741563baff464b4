package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferralTransaction records one reward issuance: the invited user verified
// and the referrer was credited Amount. At most one row per invited user.
type ReferralTransaction struct {
	ID            uint            `gorm:"primaryKey"`
	ReferrerID    int64           `gorm:"not null;index"` // telegram id
	InvitedUserID int64           `gorm:"not null;uniqueIndex"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	CreatedAt     time.Time
}
