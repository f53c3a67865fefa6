package bot

import (
	"strconv"
	"strings"

	"serotonyl.ru/numbers-bot/internal/telegram"
)

// CommandKind — что пользователь попросил сделать.
type CommandKind int

const (
	CmdUnknown CommandKind = iota
	CmdStart
	CmdMainMenu
	CmdBalance
	CmdDeposit
	CmdShowProducts
	CmdProduct
	CmdBuy
	CmdPaid
	CmdCancelPayment
	CmdComplete
	CmdReject
	CmdHistory
	CmdCheckDeposit

	// Админские
	CmdAdminPanel
	CmdViewOrders
	CmdAddProduct
	CmdGiveBalance
	CmdCancelAdd
	CmdLogin
	CmdLogout
	CmdOrders
	CmdDeposits
	CmdDepositOK
	CmdDepositNo
	CmdEditProduct
	CmdDeleteProduct
	CmdReply
	CmdChats

	// Свободный текст: шаг диалога админки или сообщение в чат заказа
	CmdText
)

// Command — разобранная кнопка, callback или команда.
type Command struct {
	Kind CommandKind
	ID   int64  // числовой аргумент: товар, заказ, заявка
	Args string // остаток строки после команды
	Text string // исходный текст
}

var callbackExact = map[string]CommandKind{
	telegram.CallbackMainMenu:       CmdMainMenu,
	telegram.CallbackAdminPanel:     CmdAdminPanel,
	telegram.CallbackViewOrders:     CmdViewOrders,
	telegram.CallbackAddProduct:     CmdAddProduct,
	telegram.CallbackGiveBalance:    CmdGiveBalance,
	telegram.CallbackCancelPayment:  CmdCancelPayment,
	telegram.CallbackCancelAdd:      CmdCancelAdd,
	telegram.CallbackBackToProducts: CmdShowProducts,
	telegram.CallbackShowProducts:   CmdShowProducts,
}

var callbackPrefixes = []struct {
	prefix string
	kind   CommandKind
}{
	{telegram.PrefixProduct, CmdProduct},
	{telegram.PrefixBuy, CmdBuy},
	{telegram.PrefixPaid, CmdPaid},
	{telegram.PrefixComplete, CmdComplete},
	{telegram.PrefixReject, CmdReject},
	{telegram.PrefixDepositNo, CmdDepositNo},
}

var buttons = map[string]CommandKind{
	telegram.BtnBalance:  CmdBalance,
	telegram.BtnDeposit:  CmdDeposit,
	telegram.BtnNumbers:  CmdShowProducts,
	telegram.BtnAdmin:    CmdAdminPanel,
	telegram.BtnMainMenu: CmdMainMenu,
}

var slashCommands = map[string]CommandKind{
	"/start":       CmdStart,
	"/menu":        CmdMainMenu,
	"/balance":     CmdBalance,
	"/deposit":     CmdDeposit,
	"/products":    CmdShowProducts,
	"/history":     CmdHistory,
	"/admin":       CmdAdminPanel,
	"/cancel":      CmdCancelAdd,
	"/login":       CmdLogin,
	"/logout":      CmdLogout,
	"/orders":      CmdOrders,
	"/deposits":    CmdDeposits,
	"/deposit_ok":  CmdDepositOK,
	"/deposit_no":  CmdDepositNo,
	"/editproduct": CmdEditProduct,
	"/delproduct":  CmdDeleteProduct,
	"/reply":       CmdReply,
	"/chats":       CmdChats,
}

// Команды, у которых ID берётся из первого аргумента
var idCommands = map[CommandKind]bool{
	CmdDepositNo:     true,
	CmdDeleteProduct: true,
}

// DecodeCallback разбирает callback_data inline-кнопки.
func DecodeCallback(data string) Command {
	if kind, ok := callbackExact[data]; ok {
		return Command{Kind: kind, Text: data}
	}
	for _, p := range callbackPrefixes {
		if !strings.HasPrefix(data, p.prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, p.prefix), 10, 64)
		if err != nil || id <= 0 {
			return Command{Kind: CmdUnknown, Text: data}
		}
		return Command{Kind: p.kind, ID: id, Text: data}
	}
	return Command{Kind: CmdUnknown, Text: data}
}

// DecodeText разбирает текстовое сообщение: кнопку меню, команду,
// хэш транзакции или свободный текст.
func DecodeText(text string) Command {
	trimmed := strings.TrimSpace(text)
	if kind, ok := buttons[trimmed]; ok {
		return Command{Kind: kind, Text: text}
	}
	if len(trimmed) >= len(telegram.PrefixCheckHash) &&
		strings.EqualFold(trimmed[:len(telegram.PrefixCheckHash)], telegram.PrefixCheckHash) {
		return Command{Kind: CmdCheckDeposit, Text: text}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: CmdText, Text: text}
	}

	name, args := splitCommand(trimmed)
	kind, ok := slashCommands[name]
	if !ok {
		return Command{Kind: CmdUnknown, Args: args, Text: text}
	}
	cmd := Command{Kind: kind, Args: strings.TrimSpace(args), Text: text}
	if idCommands[kind] {
		if id, err := strconv.ParseInt(firstField(cmd.Args), 10, 64); err == nil && id > 0 {
			cmd.ID = id
		}
	}
	return cmd
}

// splitCommand отделяет команду от аргументов и убирает @имя_бота.
func splitCommand(text string) (string, string) {
	head, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		head, rest = head[:i], head[i+1:]+" "+rest
	}
	if at := strings.IndexByte(head, '@'); at > 0 {
		head = head[:at]
	}
	return strings.ToLower(head), rest
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
