package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/numbers-bot/internal/telegram"
)

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		data string
		want Command
	}{
		{"main_menu", Command{Kind: CmdMainMenu, Text: "main_menu"}},
		{"back_to_products", Command{Kind: CmdShowProducts, Text: "back_to_products"}},
		{"product_5", Command{Kind: CmdProduct, ID: 5, Text: "product_5"}},
		{"buy_7", Command{Kind: CmdBuy, ID: 7, Text: "buy_7"}},
		{"paid_12", Command{Kind: CmdPaid, ID: 12, Text: "paid_12"}},
		{"complete_3", Command{Kind: CmdComplete, ID: 3, Text: "complete_3"}},
		{"reject_3", Command{Kind: CmdReject, ID: 3, Text: "reject_3"}},
		{"deposit_no_9", Command{Kind: CmdDepositNo, ID: 9, Text: "deposit_no_9"}},
		{"buy_abc", Command{Kind: CmdUnknown, Text: "buy_abc"}},
		{"buy_0", Command{Kind: CmdUnknown, Text: "buy_0"}},
		{"something", Command{Kind: CmdUnknown, Text: "something"}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeCallback(tt.data))
		})
	}
}

func TestDecodeText(t *testing.T) {
	t.Run("кнопки меню", func(t *testing.T) {
		assert.Equal(t, CmdBalance, DecodeText(telegram.BtnBalance).Kind)
		assert.Equal(t, CmdDeposit, DecodeText(telegram.BtnDeposit).Kind)
		assert.Equal(t, CmdShowProducts, DecodeText(telegram.BtnNumbers).Kind)
		assert.Equal(t, CmdAdminPanel, DecodeText(telegram.BtnAdmin).Kind)
	})

	t.Run("хэш транзакции", func(t *testing.T) {
		cmd := DecodeText("CHECK_abc123")
		assert.Equal(t, CmdCheckDeposit, cmd.Kind)
		assert.Equal(t, "CHECK_abc123", cmd.Text)
	})

	t.Run("команда с именем бота", func(t *testing.T) {
		cmd := DecodeText("/start@numbers_bot")
		assert.Equal(t, CmdStart, cmd.Kind)
	})

	t.Run("аргументы", func(t *testing.T) {
		cmd := DecodeText("/deposit_ok 4 1.5")
		assert.Equal(t, CmdDepositOK, cmd.Kind)
		assert.Equal(t, "4 1.5", cmd.Args)

		cmd = DecodeText("/editproduct 2 price=3 name=Новый номер")
		assert.Equal(t, CmdEditProduct, cmd.Kind)
		assert.Equal(t, "2 price=3 name=Новый номер", cmd.Args)
	})

	t.Run("ID из аргумента", func(t *testing.T) {
		assert.Equal(t, int64(8), DecodeText("/deposit_no 8").ID)
		assert.Equal(t, int64(3), DecodeText("/delproduct 3").ID)
		assert.Zero(t, DecodeText("/delproduct x").ID)
	})

	t.Run("ответ админа", func(t *testing.T) {
		cmd := DecodeText("/reply 42 Привет")
		assert.Equal(t, CmdReply, cmd.Kind)
		assert.Equal(t, "/reply 42 Привет", cmd.Text)
	})

	t.Run("свободный текст и неизвестная команда", func(t *testing.T) {
		assert.Equal(t, CmdText, DecodeText("Когда будет номер?").Kind)
		assert.Equal(t, CmdUnknown, DecodeText("/foo").Kind)
	})
}
