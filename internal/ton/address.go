package ton

import (
	"github.com/xssnick/tonutils-go/address"
)

// ParseWallet принимает адрес в user-friendly (EQ.../UQ...) или raw (0:hex) форме.
func ParseWallet(s string) (*address.Address, error) {
	addr, err := address.ParseAddr(s)
	if err == nil {
		return addr, nil
	}
	if raw, rawErr := address.ParseRawAddr(s); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// DisplayWallet — адрес для показа покупателю. Raw-адрес переводится в
// user-friendly форму, нераспознанная строка возвращается как есть.
func DisplayWallet(s string) string {
	addr, err := ParseWallet(s)
	if err != nil {
		return s
	}
	return addr.String()
}

// ShortAddress сокращает адрес для логов и списков: EQCD39...qB2N.
func ShortAddress(s string) string {
	r := []rune(s)
	if len(r) <= 12 {
		return s
	}
	return string(r[:6]) + "..." + string(r[len(r)-4:])
}
