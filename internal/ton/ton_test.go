package ton

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionExists(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"found", http.StatusOK, `{"ok":true,"result":[]}`, true},
		{"not ok", http.StatusOK, `{"ok":false,"error":"not found"}`, false},
		{"server error", http.StatusInternalServerError, `{}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey, gotHash, gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotKey = r.Header.Get("X-API-Key")
				gotHash = r.URL.Query().Get("hash")
				gotPath = r.URL.Path
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/api/v2", "secret")
			ok, err := c.TransactionExists(context.Background(), "0xabc+/=")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, "secret", gotKey)
			assert.Equal(t, "0xabc+/=", gotHash)
			assert.Equal(t, "/api/v2/getTransaction", gotPath)
		})
	}
}

func TestTransactionExistsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, "").TransactionExists(context.Background(), "h")
	assert.Error(t, err)
}

func TestTransactionExistsBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").TransactionExists(context.Background(), "h")
	assert.Error(t, err)
}

func TestParseWallet(t *testing.T) {
	_, err := ParseWallet("EQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqB2N")
	require.NoError(t, err)

	raw, err := ParseWallet("0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.String())

	_, err = ParseWallet("wallet")
	assert.Error(t, err)
	assert.Equal(t, "wallet", DisplayWallet("wallet"))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "EQCD39...qB2N", ShortAddress("EQCD39VS5jcptHL8vMjEXrzGaRcCVYto7HUn4bpAOg8xqB2N"))
	assert.Equal(t, "short", ShortAddress("short"))
}
