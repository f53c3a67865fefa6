package catalog

import "strings"

// blurb — описание карточки для товаров, в названии которых есть keyword.
type blurb struct {
	keyword string
	text    string
}

// Порядок важен: "fresh vip" получит описание fresh.
var blurbs = []blurb{
	{"fresh", `🍕 Свежий номер Telegram

• Полностью новый аккаунт
• Никогда не использовался
• Полный доступ ко всем функциям
• Гарантия 30 дней
• Моментальная доставка`},
	{"vip", `👑 VIP номер Telegram

• Премиум качество
• Приоритетная поддержка
• Дополнительные гарантии
• Быстрая активация
• Эксклюзивный сервис`},
	{"premium", `💎 Premium номер Telegram

• Высшее качество
• Расширенная гарантия
• Персональный менеджер
• Быстрая доставка
• Полная анонимность`},
	{"standard", `📱 Стандартный номер Telegram

• Надежный аккаунт
• Базовая гарантия
• Быстрая доставка
• Полный доступ
• Экономичный вариант`},
}

const defaultBlurb = `📞 Номер Telegram

• Полный доступ к аккаунту
• Гарантия работоспособности
• Быстрая доставка
• Поддержка 24/7
• Анонимность и безопасность`

// Description подбирает описание по ключевому слову в названии товара.
func Description(name string) string {
	lower := strings.ToLower(name)
	for _, b := range blurbs {
		if strings.Contains(lower, b.keyword) {
			return b.text
		}
	}
	return defaultBlurb
}
