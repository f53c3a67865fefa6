// Package relay пересылает свободный текст между покупателем и админом.
// Своего состояния у роутера нет: адресаты берутся из заказов в processing.
package relay

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Store — часть журнала, нужная роутеру.
type Store interface {
	ListUserChats(ctx context.Context, userID int64) ([]*store.Order, error)
	ListActiveChats(ctx context.Context) ([]*store.ActiveChat, error)
}

// Sender отправляет текст в чат. Ошибка означает, что сообщение не доставлено.
type Sender interface {
	SendText(chatID int64, text string) error
}

// Outcome — чем закончилась обработка сообщения.
type Outcome int

const (
	// MenuHint — пересылать некуда, подсказать меню
	MenuHint Outcome = iota
	// Forwarded — сообщение покупателя ушло админу
	Forwarded
	// ForwardFailed — ни одна копия не дошла до админа
	ForwardFailed
	// ReplySent — ответ админа доставлен покупателю
	ReplySent
	// ReplyFailed — покупатель недоступен (не писал боту, заблокировал)
	ReplyFailed
	// ReplyUsage — /reply без ID или текста
	ReplyUsage
	// Chats — список активных чатов в Result.Chats
	Chats
	// NoChats — /chats, но активных чатов нет
	NoChats
	// UsageHint — текст админа без команды при активных чатах
	UsageHint
)

// Result — итог для слоя представления.
type Result struct {
	Outcome Outcome
	// Forwarded — сколько копий доставлено админу
	Forwarded int
	// Orders — заказы, по которым переслано сообщение покупателя
	Orders []int64
	Chats  []*store.ActiveChat
	// TargetID — адресат /reply
	TargetID int64
}

// Router маршрутизирует свободный текст.
type Router struct {
	store   Store
	sender  Sender
	adminID int64
	// fanout: отдельная копия админу на каждый заказ в processing
	fanout bool
}

// NewRouter создаёт роутер. fanout=false склеивает копии в одно сообщение со списком заказов.
func NewRouter(s Store, sender Sender, adminID int64, fanout bool) *Router {
	return &Router{store: s, sender: sender, adminID: adminID, fanout: fanout}
}

// FromUser пересылает сообщение покупателя админу по его заказам в работе.
func (r *Router) FromUser(ctx context.Context, userID int64, username, text string) (*Result, error) {
	orders, err := r.store.ListUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return &Result{Outcome: MenuHint}, nil
	}

	res := &Result{Outcome: Forwarded}
	for _, o := range orders {
		res.Orders = append(res.Orders, o.ID)
	}

	who := common.DisplayName(userID, username)
	if !r.fanout {
		ids := make([]string, len(orders))
		for i, o := range orders {
			ids[i] = fmt.Sprintf("#%d", o.ID)
		}
		msg := fmt.Sprintf("💬 Сообщение от %s (ID %d)\nЗаказы: %s\n\n%s\n\nОтветить: /reply %d текст",
			who, userID, strings.Join(ids, ", "), text, userID)
		if err := r.sender.SendText(r.adminID, msg); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Сообщение покупателя не доставлено админу")
		} else {
			res.Forwarded = 1
		}
	} else {
		for _, o := range orders {
			msg := fmt.Sprintf("💬 Сообщение от %s (ID %d)\nЗаказ #%d: %s\n\n%s\n\nОтветить: /reply %d текст",
				who, userID, o.ID, productLabel(o), text, userID)
			if err := r.sender.SendText(r.adminID, msg); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"user_id":  userID,
					"order_id": o.ID,
				}).Warn("Сообщение покупателя не доставлено админу")
				continue
			}
			res.Forwarded++
		}
	}

	if res.Forwarded == 0 {
		res.Outcome = ForwardFailed
	}
	return res, nil
}

// FromAdmin разбирает текст админа: /reply <userId> <текст>, /chats или что-то иное.
func (r *Router) FromAdmin(ctx context.Context, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	cmd, rest := splitCommand(text)

	switch cmd {
	case "/reply":
		return r.reply(rest), nil

	case "/chats":
		chats, err := r.store.ListActiveChats(ctx)
		if err != nil {
			return nil, err
		}
		if len(chats) == 0 {
			return &Result{Outcome: NoChats}, nil
		}
		return &Result{Outcome: Chats, Chats: chats}, nil
	}

	chats, err := r.store.ListActiveChats(ctx)
	if err != nil {
		return nil, err
	}
	if len(chats) > 0 && !strings.HasPrefix(text, "/") {
		return &Result{Outcome: UsageHint, Chats: chats}, nil
	}
	return &Result{Outcome: MenuHint}, nil
}

// reply пересылает текст покупателю. Неизвестному ID тоже пробуем отправить:
// Telegram сам скажет, что чата нет.
func (r *Router) reply(args string) *Result {
	idPart, msg := splitCommand(args)
	userID, err := strconv.ParseInt(idPart, 10, 64)
	msg = strings.TrimSpace(msg)
	if err != nil || msg == "" {
		return &Result{Outcome: ReplyUsage}
	}

	if err := r.sender.SendText(userID, "👑 Администратор:\n\n"+msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ответ админа не доставлен")
		return &Result{Outcome: ReplyFailed, TargetID: userID}
	}
	return &Result{Outcome: ReplySent, TargetID: userID}
}

// splitCommand отделяет первое слово от остатка. "/reply@shop_bot" → "/reply".
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	i := strings.IndexAny(text, " \n\t")
	head, rest := text, ""
	if i >= 0 {
		head, rest = text[:i], text[i+1:]
	}
	if at := strings.IndexByte(head, '@'); at > 0 && strings.HasPrefix(head, "/") {
		head = head[:at]
	}
	return strings.ToLower(head), rest
}

func productLabel(o *store.Order) string {
	if o.ProductName == "" {
		return "товар удалён"
	}
	return o.ProductName
}
