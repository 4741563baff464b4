package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"referearn-bot/internal/models"
)

var (
	// ErrNoWallet means no payout destination is bound yet.
	ErrNoWallet = errors.New("no wallet bound")
	// ErrInsufficientBalance means the balance is below the withdrawal threshold.
	ErrInsufficientBalance = errors.New("balance below withdrawal threshold")
)

// Ledger is the durable per-user record store plus the verification state
// machine and the referral reward engine on top of it.
//
// Read operations are total: a user that was never seen yields zero values,
// never an error. Write operations create the row when needed. The
// read-check-write sequences of AttemptVerify run under a single transaction,
// serialized by a mutex, so two interleaved verification attempts for the
// same user can never credit the referrer twice.
type Ledger struct {
	db          *gorm.DB
	mu          sync.Mutex
	bonus       decimal.Decimal
	minWithdraw decimal.Decimal
}

func New(db *gorm.DB, bonus, minWithdraw decimal.Decimal) *Ledger {
	return &Ledger{
		db:          db,
		bonus:       bonus,
		minWithdraw: minWithdraw,
	}
}

// Bonus is the amount credited to a referrer per verified referral.
func (l *Ledger) Bonus() decimal.Decimal { return l.bonus }

// MinWithdraw is the balance threshold for withdrawal eligibility.
func (l *Ledger) MinWithdraw() decimal.Decimal { return l.minWithdraw }

// Ensure creates a zero-balance, unverified record for userID if absent.
// Calling it for an existing user changes nothing.
func (l *Ledger) Ensure(ctx context.Context, userID int64) error {
	err := l.db.WithContext(ctx).
		FirstOrCreate(&models.User{}, models.User{TelegramID: userID}).Error
	if err != nil {
		return fmt.Errorf("ensure user %d: %w", userID, err)
	}
	return nil
}

// Balance returns the current balance, zero for unknown users.
func (l *Ledger) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var u models.User
	err := l.db.WithContext(ctx).Where("telegram_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance of %d: %w", userID, err)
	}
	return u.Balance, nil
}

// Stats returns how many referred users verified under userID and the total
// earned from them. (0, 0) for unknown users.
func (l *Ledger) Stats(ctx context.Context, userID int64) (int64, decimal.Decimal, error) {
	var u models.User
	err := l.db.WithContext(ctx).Where("telegram_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, decimal.Zero, nil
	}
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("stats of %d: %w", userID, err)
	}
	return u.ReferralCount, u.ReferralEarnings, nil
}

// SetReferrer records referrerID on userID's row only if no referrer is set
// yet. First writer wins; a self-referral or a repeat call is a no-op.
func (l *Ledger) SetReferrer(ctx context.Context, userID, referrerID int64) error {
	if userID == referrerID {
		return nil
	}
	res := l.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ? AND referred_by IS NULL", userID).
		Update("referred_by", referrerID)
	if res.Error != nil {
		return fmt.Errorf("set referrer of %d: %w", userID, res.Error)
	}
	return nil
}

// SetWallet upserts the payout destination, replacing any previous pair.
func (l *Ledger) SetWallet(ctx context.Context, userID int64, provider, account string) error {
	res := l.db.WithContext(ctx).Model(&models.User{}).
		Where("telegram_id = ?", userID).
		Updates(map[string]interface{}{
			"wallet_provider": provider,
			"wallet_account":  account,
		})
	if res.Error != nil {
		return fmt.Errorf("set wallet of %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		// user was never ensured, create the row with the wallet attached
		u := models.User{
			TelegramID:     userID,
			WalletProvider: provider,
			WalletAccount:  account,
		}
		if err := l.db.WithContext(ctx).Create(&u).Error; err != nil {
			return fmt.Errorf("set wallet of %d: %w", userID, err)
		}
	}
	return nil
}

// Wallet returns the bound payout destination, empty strings when none.
func (l *Ledger) Wallet(ctx context.Context, userID int64) (provider, account string, err error) {
	var u models.User
	err = l.db.WithContext(ctx).Where("telegram_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("wallet of %d: %w", userID, err)
	}
	return u.WalletProvider, u.WalletAccount, nil
}

// CanWithdraw reports whether userID may submit a withdrawal request:
// balance at or above the threshold and a wallet bound.
func (l *Ledger) CanWithdraw(ctx context.Context, userID int64) (bool, error) {
	var u models.User
	err := l.db.WithContext(ctx).Where("telegram_id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("can withdraw for %d: %w", userID, err)
	}
	return u.WalletProvider != "" && u.WalletAccount != "" &&
		u.Balance.GreaterThanOrEqual(l.minWithdraw), nil
}

// SubmitWithdrawal records a pending withdrawal request for the full current
// balance. The balance itself is not debited; settlement happens outside the
// bot. Returns ErrNoWallet or ErrInsufficientBalance when not eligible.
func (l *Ledger) SubmitWithdrawal(ctx context.Context, userID int64) (*models.WithdrawalRequest, error) {
	var req *models.WithdrawalRequest
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.Where("telegram_id = ?", userID).First(&u).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInsufficientBalance
			}
			return err
		}
		if u.WalletProvider == "" || u.WalletAccount == "" {
			return ErrNoWallet
		}
		if u.Balance.LessThan(l.minWithdraw) {
			return ErrInsufficientBalance
		}
		req = &models.WithdrawalRequest{
			UserID:         userID,
			Amount:         u.Balance,
			WalletProvider: u.WalletProvider,
			WalletAccount:  u.WalletAccount,
			Status:         "pending",
		}
		return tx.Create(req).Error
	})
	if err != nil {
		if errors.Is(err, ErrNoWallet) || errors.Is(err, ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("submit withdrawal for %d: %w", userID, err)
	}
	return req, nil
}
