package deposits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/ton"
)

// Handler — инструкция по пополнению и приём хэшей.
type Handler struct {
	service *Service
	sender  *telegram.Sender
	wallet  string
}

// NewHandler создаёт обработчик депозитов. wallet — адрес магазина из WALLET_TON.
func NewHandler(service *Service, sender *telegram.Sender, wallet string) *Handler {
	return &Handler{service: service, sender: sender, wallet: ton.DisplayWallet(wallet)}
}

// Instructions — «💰 Пополнить баланс».
func (h *Handler) Instructions(chatID int64) {
	text := fmt.Sprintf(`💰 Пополнение баланса

💎 Отправьте TON на адрес:
%s

⚠️ Внимание!
1. Отправляйте ТОЛЬКО TON
2. Минимальная сумма: %s
3. После перевода скопируйте хэш транзакции

📝 Для проверки оплаты отправьте боту:
check_<хэш транзакции>`, h.wallet, common.FormatTON(h.service.MinDeposit()))
	h.sender.Reply(chatID, text, nil)
}

// Check — сообщение check_<хэш>.
func (h *Handler) Check(ctx context.Context, chatID, userID int64, text string) {
	res, err := h.service.Check(ctx, userID, text)
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		h.sender.Reply(chatID, "❌ Отправьте хэш в формате check_<хэш транзакции>", nil)
		return
	case errors.Is(err, common.ErrDuplicate) && res != nil:
		h.sender.Reply(chatID, duplicateText(res.Tx), nil)
		return
	case errors.Is(err, ErrVerifierUnavailable):
		h.sender.Reply(chatID, "⚠️ Сервис проверки платежей недоступен, попробуйте позже", nil)
		return
	case err != nil:
		h.sender.Reply(chatID, telegram.ErrorText(err), nil)
		return
	}

	if !res.Found {
		h.sender.Reply(chatID, "❌ Платеж не найден или ещё не подтверждён.", nil)
		return
	}
	h.sender.Reply(chatID, fmt.Sprintf(
		"✅ Платеж найден! Заявка #%d передана администратору.\nБаланс пополнится после проверки суммы.", res.Tx.ID), nil)
}

// historyLimit — сколько заявок показывает /history.
const historyLimit = 5

var txLabels = map[store.TxStatus]string{
	store.TxPending:   "⏳ На проверке",
	store.TxConfirmed: "✅ Зачислено",
	store.TxRejected:  "❌ Отклонено",
}

// History — заявки на пополнение в /history. Без заявок ничего не отправляет.
func (h *Handler) History(ctx context.Context, chatID, userID int64) {
	list, err := h.service.UserDeposits(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения заявок на пополнение")
		return
	}
	if len(list) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("💎 Ваши пополнения:\n")
	for i, tx := range list {
		if i == historyLimit {
			fmt.Fprintf(&b, "\n…и ещё %d", len(list)-historyLimit)
			break
		}
		fmt.Fprintf(&b, "\n#%d %s · %s\n%s", tx.ID, ton.ShortAddress(tx.TxHash),
			common.FormatDateTime(tx.CreatedAt), txLabels[tx.Status])
		if tx.Status == store.TxConfirmed {
			fmt.Fprintf(&b, ": %s", common.FormatTON(tx.Amount))
		}
		b.WriteString("\n")
	}
	h.sender.Reply(chatID, strings.TrimRight(b.String(), "\n"), nil)
}

func duplicateText(tx *store.Transaction) string {
	switch tx.Status {
	case store.TxConfirmed:
		return fmt.Sprintf("✅ Заявка #%d уже зачислена: %s", tx.ID, common.FormatTON(tx.Amount))
	case store.TxRejected:
		return fmt.Sprintf("❌ Заявка #%d с этим хэшем была отклонена", tx.ID)
	default:
		return fmt.Sprintf("⏳ Заявка #%d уже на проверке у администратора", tx.ID)
	}
}
