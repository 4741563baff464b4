package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"referearn-bot/internal/config"
	"referearn-bot/internal/ledger"
	"referearn-bot/internal/session"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
)

type Bot struct {
	Instance *telego.Bot
	Ledger   *ledger.Ledger
	Sessions session.Store
	Config   *config.Config
}

func NewBot(token string, ldg *ledger.Ledger, sessions session.Store, cfg *config.Config) (*Bot, error) {
	tgBot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		Instance: tgBot,
		Ledger:   ldg,
		Sessions: sessions,
		Config:   cfg,
	}, nil
}

var walletNumberRe = regexp.MustCompile(`^01\d{9}$`)

func validWalletNumber(number string) bool {
	return walletNumberRe.MatchString(number)
}

func (b *Bot) Start() {
	updates, _ := b.Instance.UpdatesViaLongPolling(context.Background(), nil)

	handler, _ := th.NewBotHandler(b.Instance, updates)

	// /start command, with optional referrer id as deep-link payload
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		message := update.Message
		uid := message.From.ID

		if err := b.Ledger.Ensure(ctx.Context(), uid); err != nil {
			log.Printf("Failed to ensure user %d: %v", uid, err)
		}

		// Parse /start <ref_id>; anything non-numeric is ignored
		if parts := strings.Split(message.Text, " "); len(parts) > 1 {
			if refID, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
				if err := b.Ledger.SetReferrer(ctx.Context(), uid, refID); err != nil {
					log.Printf("Failed to set referrer for %d: %v", uid, err)
				}
			}
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			welcomeText(b.Config),
		).WithParseMode(telego.ModeMarkdown).WithReplyMarkup(verifyMenu(b.Config)))

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(message.Chat.ID),
			"Pick an option from the main menu:",
		).WithReplyMarkup(mainMenu()))
		return nil
	}, th.CommandEqual("start"))

	// /help command
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(update.Message.Chat.ID),
			"Commands:\n/start - start the bot\n/help - this help\nUse the menu buttons for everything else.",
		))
		return nil
	}, th.CommandEqual("help"))

	// Tracked link taps: record click evidence, then hand out the link
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		uid := callback.From.ID
		which := strings.TrimPrefix(callback.Data, "link:")

		var link config.TrackedLink
		var sessionLink session.Link
		switch which {
		case "A":
			link, sessionLink = b.Config.LinkA, session.LinkA
		case "B":
			link, sessionLink = b.Config.LinkB, session.LinkB
		default:
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		if err := b.Sessions.MarkClicked(ctx.Context(), uid, sessionLink); err != nil {
			log.Printf("Failed to mark click %s for %d: %v", which, uid, err)
		}

		kb := tu.InlineKeyboard(
			tu.InlineKeyboardRow(
				tu.InlineKeyboardButton("🔓 Open Link").WithURL(link.URL),
			),
		)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			fmt.Sprintf("%s tapped ✅\nNow open it:", link.Title),
		).WithReplyMarkup(kb))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("link:"))

	// Verify: collect the three prerequisite flags, then run the one-way
	// verified transition; on the first transition the referrer is credited.
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		uid := callback.From.ID

		if err := b.Ledger.Ensure(ctx.Context(), uid); err != nil {
			log.Printf("Failed to ensure user %d: %v", uid, err)
		}

		clickedA, err := b.Sessions.Clicked(ctx.Context(), uid, session.LinkA)
		if err != nil {
			log.Printf("Failed to read click A for %d: %v", uid, err)
		}
		clickedB, err := b.Sessions.Clicked(ctx.Context(), uid, session.LinkB)
		if err != nil {
			log.Printf("Failed to read click B for %d: %v", uid, err)
		}

		prereqs := ledger.Prerequisites{
			ChannelJoined: b.channelJoined(ctx.Context(), uid),
			ClickedLinkA:  clickedA,
			ClickedLinkB:  clickedB,
		}

		if !prereqs.Met() {
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				"❌ Verification failed. Complete these first:"+unmetText(prereqs.Missing()),
			).WithReplyMarkup(verifyMenu(b.Config)))
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		referrerID, credited, err := b.Ledger.AttemptVerify(ctx.Context(), uid, prereqs)
		if err != nil {
			log.Printf("Failed to verify user %d: %v", uid, err)
			_ = b.tryAgain(ctx, uid)
			_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
			return nil
		}

		if credited {
			name := callback.From.FirstName
			if name == "" {
				name = strconv.FormatInt(uid, 10)
			}
			// Delivery fails if the referrer blocked the bot; ignore.
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(referrerID),
				fmt.Sprintf("🎉 Your referral *%s* just verified!\n➕ %s ৳ added to your balance.",
					name, b.Ledger.Bonus()),
			).WithParseMode(telego.ModeMarkdown))
		}

		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			"✅ Verification successful! All conditions met.",
		))
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("verify"))

	// Wallet provider picker
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		uid := callback.From.ID
		action := strings.TrimPrefix(callback.Data, "wallet:")

		if err := b.Ledger.Ensure(ctx.Context(), uid); err != nil {
			log.Printf("Failed to ensure user %d: %v", uid, err)
		}

		switch action {
		case "back":
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				"Pick a payment method:",
			).WithReplyMarkup(walletProviderMenu()))
		case "bkash", "nagad":
			if err := b.Sessions.AwaitWallet(ctx.Context(), uid, action); err != nil {
				log.Printf("Failed to start wallet entry for %d: %v", uid, err)
			}
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				fmt.Sprintf("Please send your %s Account Number: 01********", providerNice(action)),
			))
		}
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataPrefix("wallet:"))

	// Withdraw request: records a pending request, never debits the balance
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		callback := update.CallbackQuery
		uid := callback.From.ID

		_, err := b.Ledger.SubmitWithdrawal(ctx.Context(), uid)
		switch {
		case errors.Is(err, ledger.ErrNoWallet):
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				"Save your Bkash/Nagad number via 💼 Set Wallet first.",
			))
		case errors.Is(err, ledger.ErrInsufficientBalance):
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				fmt.Sprintf("Balance is not enough. You need at least %s ৳.", b.Ledger.MinWithdraw()),
			))
		case err != nil:
			log.Printf("Failed to submit withdrawal for %d: %v", uid, err)
			_ = b.tryAgain(ctx, uid)
		default:
			_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
				tu.ID(uid),
				"♻ Sᴛᴀᴛᴜs :- Pᴇɴᴅɪɴɢ ⏳\n⏰ Pᴀʏᴍᴇɴᴛ Tɪᴍᴇ :- 24hours",
			))
		}
		_ = ctx.Bot().AnswerCallbackQuery(ctx.Context(), tu.CallbackQuery(callback.ID))
		return nil
	}, th.CallbackDataEqual("withdraw:request"))

	// All other text: wallet number capture when one is expected, main menu
	// routing otherwise.
	handler.Handle(func(ctx *th.Context, update telego.Update) error {
		uid := update.Message.From.ID
		text := strings.TrimSpace(update.Message.Text)

		if err := b.Ledger.Ensure(ctx.Context(), uid); err != nil {
			log.Printf("Failed to ensure user %d: %v", uid, err)
		}

		if provider, ok, err := b.Sessions.AwaitedWallet(ctx.Context(), uid); err == nil && ok {
			return b.captureWalletNumber(ctx, uid, provider, text)
		}

		return b.onMenuText(ctx, uid, text)
	}, th.AnyMessageWithText())

	handler.Start()
}

// captureWalletNumber stores the payout account once it matches the 11-digit
// 01 format. Invalid input keeps the conversation open, nothing is stored.
func (b *Bot) captureWalletNumber(ctx *th.Context, uid int64, provider, number string) error {
	if !validWalletNumber(number) {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			"Wrong number! Send 11 digits in the 01******** format.",
		))
		return nil
	}

	if err := b.Ledger.SetWallet(ctx.Context(), uid, provider, number); err != nil {
		log.Printf("Failed to set wallet for %d: %v", uid, err)
		return b.tryAgain(ctx, uid)
	}
	if err := b.Sessions.ClearAwaitWallet(ctx.Context(), uid); err != nil {
		log.Printf("Failed to clear wallet entry for %d: %v", uid, err)
	}

	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(uid),
		fmt.Sprintf("✅ Your number is saved for Withdraw.\nMethod: %s\nAccount: %s\n\n"+
			"Once your balance reaches %s ৳ you can withdraw ✅",
			providerNice(provider), number, b.Ledger.MinWithdraw()),
	))
	return nil
}

func (b *Bot) onMenuText(ctx *th.Context, uid int64, text string) error {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "balance"):
		bal, err := b.Ledger.Balance(ctx.Context(), uid)
		if err != nil {
			log.Printf("Failed to read balance for %d: %v", uid, err)
			return b.tryAgain(ctx, uid)
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			fmt.Sprintf("Your balance: %s ৳", bal.StringFixed(2)),
		))

	case strings.Contains(lower, "refer"):
		username := "this_bot"
		if info, err := b.Instance.GetMe(ctx.Context()); err == nil {
			username = info.Username
		}
		link := fmt.Sprintf("https://t.me/%s?start=%d", username, uid)
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			fmt.Sprintf("Your referral link (you earn %s ৳ when the referred user verifies):\n%s",
				b.Ledger.Bonus(), link),
		))

	case strings.Contains(lower, "withdraw"):
		return b.onWithdrawMenu(ctx, uid)

	case strings.Contains(lower, "rules"):
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(tu.ID(uid), rulesText))

	case strings.Contains(lower, "wallet"):
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			"Pick a payment method:",
		).WithReplyMarkup(walletProviderMenu()))

	case strings.Contains(lower, "stats"):
		count, earned, err := b.Ledger.Stats(ctx.Context(), uid)
		if err != nil {
			log.Printf("Failed to read stats for %d: %v", uid, err)
			return b.tryAgain(ctx, uid)
		}
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			fmt.Sprintf("Your stats:\nTotal referrals (verified): %d\nReferral income: %s ৳",
				count, earned),
		))

	default:
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			"Pick a valid option. See /help.",
		))
	}
	return nil
}

func (b *Bot) onWithdrawMenu(ctx *th.Context, uid int64) error {
	provider, account, err := b.Ledger.Wallet(ctx.Context(), uid)
	if err != nil {
		log.Printf("Failed to read wallet for %d: %v", uid, err)
		return b.tryAgain(ctx, uid)
	}
	if provider == "" || account == "" {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			"Pick Bkash/Nagad via 💼 Set Wallet and save your number first.",
		))
		return nil
	}

	bal, err := b.Ledger.Balance(ctx.Context(), uid)
	if err != nil {
		log.Printf("Failed to read balance for %d: %v", uid, err)
		return b.tryAgain(ctx, uid)
	}

	eligible, err := b.Ledger.CanWithdraw(ctx.Context(), uid)
	if err != nil {
		log.Printf("Failed to check withdrawal eligibility for %d: %v", uid, err)
		return b.tryAgain(ctx, uid)
	}

	header := fmt.Sprintf("Your saved account:\nMethod: %s\nAccount: %s\n\n",
		providerNice(provider), account)

	if eligible {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			header+fmt.Sprintf("Balance: %s ৳\nYou can withdraw at %s ৳ or more.",
				bal.StringFixed(2), b.Ledger.MinWithdraw()),
		).WithReplyMarkup(withdrawRequestMenu()))
	} else {
		_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
			tu.ID(uid),
			header+fmt.Sprintf("Current balance: %s ৳. You can withdraw once you reach %s ৳.",
				bal.StringFixed(2), b.Ledger.MinWithdraw()),
		))
	}
	return nil
}

func (b *Bot) tryAgain(ctx *th.Context, uid int64) error {
	_, _ = ctx.Bot().SendMessage(ctx.Context(), tu.Message(
		tu.ID(uid),
		"❌ Something went wrong. Please try again.",
	))
	return nil
}

// channelJoined checks the channel-membership prerequisite. A failed check
// (bot kicked, user never seen) counts as not joined.
func (b *Bot) channelJoined(ctx context.Context, uid int64) bool {
	member, err := b.Instance.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.Username(b.Config.ChannelUsername),
		UserID: uid,
	})
	if err != nil {
		log.Printf("Cannot check %s membership for %d: %v", b.Config.ChannelUsername, uid, err)
		return false
	}
	switch member.MemberStatus() {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator, telego.MemberStatusMember:
		return true
	}
	return false
}
