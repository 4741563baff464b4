package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is one ledger row per Telegram participant.
//
// ReferredBy is set at most once (first writer wins) and never equals
// TelegramID itself. Verified and RewardIssued only ever go false -> true.
// RewardIssued is true exactly when this user's referrer has received the
// one bonus credit attributable to this user.
type User struct {
	ID               uint            `gorm:"primaryKey"`
	TelegramID       int64           `gorm:"uniqueIndex;not null"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	ReferredBy       *int64          `gorm:"index"` // referrer's telegram id
	Verified         bool            `gorm:"not null;default:false"`
	RewardIssued     bool            `gorm:"not null;default:false"`
	ReferralCount    int64           `gorm:"not null;default:0"`
	ReferralEarnings decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0"`
	WalletProvider   string          `gorm:"size:32"`
	WalletAccount    string          `gorm:"size:32"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
