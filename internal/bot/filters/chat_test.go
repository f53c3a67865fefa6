package filters

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestCheckAccess(t *testing.T) {
	f := NewChatFilter()
	private := &tgbotapi.Chat{ID: 1, Type: "private"}
	group := &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	human := &tgbotapi.User{ID: 1}
	bot := &tgbotapi.User{ID: 2, IsBot: true}

	assert.True(t, f.CheckAccess(private, human))
	assert.False(t, f.CheckAccess(group, human))
	assert.False(t, f.CheckAccess(private, bot))
	assert.False(t, f.CheckAccess(nil, human))
	assert.False(t, f.CheckAccess(private, nil))
}
