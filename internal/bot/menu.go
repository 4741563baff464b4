package bot

import (
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"referearn-bot/internal/config"
	"referearn-bot/internal/ledger"
)

// verifyMenu is the inline keyboard shown on /start and after a failed
// verification: join the channel, tap both tracked links, then Verify.
func verifyMenu(cfg *config.Config) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📢 Join Official Channel").WithURL(cfg.ChannelURL),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(cfg.LinkA.Title).WithCallbackData("link:A"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(cfg.LinkB.Title).WithCallbackData("link:B"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("✅ Verify").WithCallbackData("verify"),
		),
	)
}

func mainMenu() *telego.ReplyKeyboardMarkup {
	return tu.Keyboard(
		tu.KeyboardRow(
			tu.KeyboardButton("🧮 My Balance"),
			tu.KeyboardButton("🌿 Refer & Earn"),
		),
		tu.KeyboardRow(
			tu.KeyboardButton("🏧 Withdraw"),
			tu.KeyboardButton("⚠️ Rules"),
		),
		tu.KeyboardRow(
			tu.KeyboardButton("💼 Set Wallet"),
			tu.KeyboardButton("🏆 Stats"),
		),
	).WithResizeKeyboard()
}

func walletProviderMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📦 Bkash").WithCallbackData("wallet:bkash"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("📦 Nagad").WithCallbackData("wallet:nagad"),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("↩️ Back").WithCallbackData("wallet:back"),
		),
	)
}

func withdrawRequestMenu() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💳 Withdraw Request").WithCallbackData("withdraw:request"),
		),
	)
}

func welcomeText(cfg *config.Config) string {
	return fmt.Sprintf(
		"🎉 Welcome to the *Free Refer Free Earn* bot!\n\n"+
			"💵 Join + Verify and your referrer earns a %s ৳ bonus.\n"+
			"👥 %s ৳ per referral (once the referred user verifies).\n"+
			"🏧 Withdraw to Nagad/Bkash once you reach %s ৳.\n\n"+
			"➡️ First join the channel, then tap both buttons once, then ✅ Verify.",
		cfg.ReferBonus, cfg.ReferBonus, cfg.MinWithdrawBalance,
	)
}

const rulesText = "❌ Follow the rules and you get paid 100%. " +
	"🚫 Fake referrals are not paid — do not fake refer. " +
	"📝 Payments arrive within 24 hours at most. " +
	"♻ Payouts go to Bkash or Nagad only. " +
	"❌ If you save a wrong number and request a withdrawal, the money is gone for good."

func providerNice(provider string) string {
	if provider == "bkash" {
		return "Bkash"
	}
	return "Nagad"
}

// unmetText turns the unmet prerequisite categories into message lines.
func unmetText(missing []string) string {
	out := ""
	for _, m := range missing {
		switch m {
		case ledger.UnmetChannel:
			out += "\n• You have not joined the channel"
		case ledger.UnmetLinkA:
			out += "\n• You have not tapped Click Here 1"
		case ledger.UnmetLinkB:
			out += "\n• You have not tapped Click Here 2"
		}
	}
	return out
}
