package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"referearn-bot/internal/models"
	"referearn-bot/internal/session"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"gorm.io/gorm"
)

// Reminder nags users who started the bot but never completed verification.
// Each user is nagged at most once per nagEvery window, deduped through the
// session store.
type Reminder struct {
	DB       *gorm.DB
	Sessions session.Store
	Bot      *telego.Bot
}

const (
	sweepEvery    = 1 * time.Hour
	unverifiedFor = 24 * time.Hour
	nagEvery      = 72 * time.Hour
)

func NewReminder(db *gorm.DB, sessions session.Store, bot *telego.Bot) *Reminder {
	return &Reminder{
		DB:       db,
		Sessions: sessions,
		Bot:      bot,
	}
}

func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()
	log.Println("Background verification reminder worker started")

	// Run once at start
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reminder) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-unverifiedFor)

	var stale []models.User
	err := r.DB.WithContext(ctx).
		Where("verified = ? AND created_at < ?", false, cutoff).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error querying unverified users: %v", err)
		return
	}

	for _, u := range stale {
		key := fmt.Sprintf("nag_unverified_%d", u.TelegramID)
		first, err := r.Sessions.Once(ctx, key, nagEvery)
		if err != nil {
			log.Printf("Failed to check nag key for %d: %v", u.TelegramID, err)
			continue
		}
		if !first {
			continue
		}

		_, err = r.Bot.SendMessage(ctx, tu.Message(
			tu.ID(u.TelegramID),
			"⏳ You have not verified yet! Join the channel, tap both links and hit ✅ Verify to unlock referral earnings.",
		))
		if err != nil {
			log.Printf("Failed to send reminder to %d: %v", u.TelegramID, err)
		}
	}
}
