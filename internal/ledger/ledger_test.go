package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referearn-bot/internal/database"
	"referearn-bot/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Shared cache keeps every pooled connection on the same in-memory DB.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return New(db, decimal.NewFromInt(50), decimal.NewFromInt(800)), db
}

func getUser(t *testing.T, db *gorm.DB, id int64) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("telegram_id = ?", id).First(&u).Error)
	return u
}

func setBalance(t *testing.T, db *gorm.DB, id int64, amount int64) {
	t.Helper()
	res := db.Model(&models.User{}).Where("telegram_id = ?", id).
		Update("balance", decimal.NewFromInt(amount))
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)
}

func TestEnsureIsIdempotent(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.Ensure(ctx, 1))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	u := getUser(t, db, 1)
	assert.True(t, u.Balance.IsZero())
	assert.False(t, u.Verified)
	assert.False(t, u.RewardIssued)
	assert.Nil(t, u.ReferredBy)
}

func TestBalanceOfUnknownUserIsZero(t *testing.T) {
	l, _ := newTestLedger(t)

	bal, err := l.Balance(context.Background(), 404)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestStatsOfUnknownUserAreZero(t *testing.T) {
	l, _ := newTestLedger(t)

	count, earned, err := l.Stats(context.Background(), 404)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	assert.True(t, earned.IsZero())
}

func TestSetReferrerFirstWriterWins(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.SetReferrer(ctx, 1, 10))
	require.NoError(t, l.SetReferrer(ctx, 1, 20))

	u := getUser(t, db, 1)
	require.NotNil(t, u.ReferredBy)
	assert.EqualValues(t, 10, *u.ReferredBy)
}

func TestSetReferrerRejectsSelf(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.SetReferrer(ctx, 1, 1))

	u := getUser(t, db, 1)
	assert.Nil(t, u.ReferredBy)
}

func TestSetWalletOverwritesCompletely(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.SetWallet(ctx, 1, "bkash", "01711111111"))
	require.NoError(t, l.SetWallet(ctx, 1, "nagad", "01922222222"))

	provider, account, err := l.Wallet(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "nagad", provider)
	assert.Equal(t, "01922222222", account)

	u := getUser(t, db, 1)
	assert.Equal(t, "nagad", u.WalletProvider)
}

func TestSetWalletCreatesMissingUser(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.SetWallet(ctx, 7, "bkash", "01711111111"))

	u := getUser(t, db, 7)
	assert.Equal(t, "bkash", u.WalletProvider)
	assert.True(t, u.Balance.IsZero())
}

func TestWalletOfUnknownUserIsEmpty(t *testing.T) {
	l, _ := newTestLedger(t)

	provider, account, err := l.Wallet(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, provider)
	assert.Empty(t, account)
}

func TestCanWithdrawGate(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))

	// no wallet, no balance
	ok, err := l.CanWithdraw(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// wallet bound, balance below threshold
	require.NoError(t, l.SetWallet(ctx, 1, "bkash", "01711111111"))
	setBalance(t, db, 1, 799)
	ok, err = l.CanWithdraw(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// balance crosses the threshold
	setBalance(t, db, 1, 850)
	ok, err = l.CanWithdraw(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// balance without wallet is still not enough
	require.NoError(t, l.Ensure(ctx, 2))
	setBalance(t, db, 2, 900)
	ok, err = l.CanWithdraw(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanWithdrawUnknownUser(t *testing.T) {
	l, _ := newTestLedger(t)

	ok, err := l.CanWithdraw(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitWithdrawalRequiresWallet(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	setBalance(t, db, 1, 900)

	_, err := l.SubmitWithdrawal(ctx, 1)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestSubmitWithdrawalRequiresBalance(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.SetWallet(ctx, 1, "bkash", "01711111111"))

	_, err := l.SubmitWithdrawal(ctx, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSubmitWithdrawalRecordsPendingRequestWithoutDebit(t *testing.T) {
	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Ensure(ctx, 1))
	require.NoError(t, l.SetWallet(ctx, 1, "nagad", "01922222222"))
	setBalance(t, db, 1, 850)

	req, err := l.SubmitWithdrawal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "pending", req.Status)
	assert.Equal(t, "nagad", req.WalletProvider)
	assert.True(t, req.Amount.Equal(decimal.NewFromInt(850)))

	// the balance is never debited by a request
	bal, err := l.Balance(ctx, 1)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(850)))

	var count int64
	require.NoError(t, db.Model(&models.WithdrawalRequest{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
