// Package telegramtest — записывающий Messenger для тестов обработчиков.
package telegramtest

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sent — одно отправленное сообщение.
type Sent struct {
	ChatID int64
	Text   string
	Markup any
}

// Recorder запоминает отправленные сообщения. Чаты из Fail «не существуют»:
// отправка в них возвращает ошибку, как Telegram для пользователя, не нажавшего /start.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Fail map[int64]bool
}

// New создаёт пустой Recorder.
func New() *Recorder {
	return &Recorder{Fail: make(map[int64]bool)}
}

func (r *Recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot can't initiate conversation with a user")
	}
	r.sent = append(r.sent, Sent{ChatID: msg.ChatID, Text: msg.Text, Markup: msg.ReplyMarkup})
	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

// Request записывает правки сообщений как отправку, остальное (callback) игнорирует.
func (r *Recorder) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if edit, ok := c.(tgbotapi.EditMessageTextConfig); ok {
		r.mu.Lock()
		defer r.mu.Unlock()
		var markup any
		if edit.ReplyMarkup != nil {
			markup = *edit.ReplyMarkup
		}
		r.sent = append(r.sent, Sent{ChatID: edit.ChatID, Text: edit.Text, Markup: markup})
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Sent возвращает копию всех отправленных сообщений.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// To возвращает тексты, отправленные в чат chatID.
func (r *Recorder) To(chatID int64) []string {
	var out []string
	for _, s := range r.Sent() {
		if s.ChatID == chatID {
			out = append(out, s.Text)
		}
	}
	return out
}

// Last — последнее сообщение или пустое, если ничего не отправлялось.
func (r *Recorder) Last() Sent {
	sent := r.Sent()
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}
