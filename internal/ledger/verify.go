package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"referearn-bot/internal/models"
)

// Prerequisites are the externally-evaluated verification conditions. The
// ledger does not know how they were checked, only their outcome.
type Prerequisites struct {
	ChannelJoined bool
	ClickedLinkA  bool
	ClickedLinkB  bool
}

// Met reports whether all conditions hold.
func (p Prerequisites) Met() bool {
	return p.ChannelJoined && p.ClickedLinkA && p.ClickedLinkB
}

// Unmet category keys, for user-facing messaging.
const (
	UnmetChannel = "channel"
	UnmetLinkA   = "link_a"
	UnmetLinkB   = "link_b"
)

// Missing lists the unmet category keys in a fixed order.
func (p Prerequisites) Missing() []string {
	var out []string
	if !p.ChannelJoined {
		out = append(out, UnmetChannel)
	}
	if !p.ClickedLinkA {
		out = append(out, UnmetLinkA)
	}
	if !p.ClickedLinkB {
		out = append(out, UnmetLinkB)
	}
	return out
}

// AttemptVerify runs the one-way UNVERIFIED -> VERIFIED transition for
// userID. If the prerequisites are unmet nothing changes. If the user is
// already verified nothing changes either, so a duplicate tap on Verify can
// never re-credit anyone. On the first successful transition the reward
// engine runs in the same transaction: the referrer (when one is recorded
// and the reward was not issued yet) is credited the bonus exactly once.
//
// Returns the referrer's id and credited=true when a bonus was issued, so
// the caller can notify them.
func (l *Ledger) AttemptVerify(ctx context.Context, userID int64, p Prerequisites) (referrerID int64, credited bool, err error) {
	if !p.Met() {
		return 0, false, nil
	}
	if err := l.Ensure(ctx, userID); err != nil {
		return 0, false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Claim the false->true transition. Zero rows means another attempt
		// already verified this user; per contract that is a silent no-op.
		flip := tx.Model(&models.User{}).
			Where("telegram_id = ? AND verified = ?", userID, false).
			Update("verified", true)
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return nil
		}

		referrerID, credited, err = l.creditReferrerIfEligible(tx, userID)
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("verify user %d: %w", userID, err)
	}
	return referrerID, credited, nil
}

// creditReferrerIfEligible issues the one-time referral bonus for userID's
// verification. Eligible only when a referrer is recorded and no reward was
// issued for this user yet; a missing referrer row counts as not eligible.
// Must run inside the caller's transaction so the balance credit and the
// reward_issued flag commit together or not at all.
func (l *Ledger) creditReferrerIfEligible(tx *gorm.DB, userID int64) (int64, bool, error) {
	var u models.User
	if err := tx.Where("telegram_id = ?", userID).First(&u).Error; err != nil {
		return 0, false, err
	}
	if u.ReferredBy == nil || u.RewardIssued {
		return 0, false, nil
	}

	var referrer models.User
	err := tx.Where("telegram_id = ?", *u.ReferredBy).First(&referrer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	// Claim the reward before crediting, so a retry sees zero rows and stops.
	claim := tx.Model(&models.User{}).
		Where("telegram_id = ? AND reward_issued = ?", userID, false).
		Update("reward_issued", true)
	if claim.Error != nil {
		return 0, false, claim.Error
	}
	if claim.RowsAffected == 0 {
		return 0, false, nil
	}

	referrer.Balance = referrer.Balance.Add(l.bonus)
	referrer.ReferralCount++
	referrer.ReferralEarnings = referrer.ReferralEarnings.Add(l.bonus)
	if err := tx.Save(&referrer).Error; err != nil {
		return 0, false, err
	}

	record := models.ReferralTransaction{
		ReferrerID:    referrer.TelegramID,
		InvitedUserID: userID,
		Amount:        l.bonus,
	}
	if err := tx.Create(&record).Error; err != nil {
		return 0, false, err
	}

	return referrer.TelegramID, true, nil
}
