package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"referearn-bot/internal/ledger"
)

func TestValidWalletNumber(t *testing.T) {
	valid := []string{"01711111111", "01000000000", "01999999999"}
	for _, n := range valid {
		assert.True(t, validWalletNumber(n), n)
	}

	invalid := []string{
		"",
		"0171111111",   // 10 digits
		"017111111112", // 12 digits
		"02711111111",  // wrong prefix
		"017111111a1",  // non-digit
		" 01711111111", // leading space
		"+8801711111111",
	}
	for _, n := range invalid {
		assert.False(t, validWalletNumber(n), n)
	}
}

func TestUnmetText(t *testing.T) {
	p := ledger.Prerequisites{}
	text := unmetText(p.Missing())
	assert.Contains(t, text, "joined the channel")
	assert.Contains(t, text, "Click Here 1")
	assert.Contains(t, text, "Click Here 2")

	p = ledger.Prerequisites{ChannelJoined: true, ClickedLinkA: true}
	text = unmetText(p.Missing())
	assert.NotContains(t, text, "joined the channel")
	assert.NotContains(t, text, "Click Here 1")
	assert.Contains(t, text, "Click Here 2")
}
