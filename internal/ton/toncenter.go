// Package ton — проверка транзакций через toncenter и работа с адресами TON.
package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultBaseURL — toncenter API v2.
const DefaultBaseURL = "https://toncenter.com/api/v2/"

// Client проверяет существование транзакции по хэшу.
// Сумма транзакции не проверяется: её подтверждает админ.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиента toncenter с таймаутом 10 секунд.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// TransactionExists запрашивает getTransaction?hash=... и возвращает поле ok ответа.
//
// Ошибка возвращается только при сбое сети или неразборчивом ответе.
// Ответ не 200 означает «транзакция не найдена»: (false, nil).
func (c *Client) TransactionExists(ctx context.Context, hash string) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}

	u := c.baseURL + "getTransaction?hash=" + url.QueryEscape(hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("toncenter: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("toncenter недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"component": "toncenter",
			"status":    resp.StatusCode,
		}).Debug("Транзакция не найдена")
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("toncenter: некорректный ответ: %w", err)
	}
	return out.OK, nil
}
