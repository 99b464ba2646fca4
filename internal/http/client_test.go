package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/storefront/internal/errors"
)

func TestClientDo(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		timeout     time.Duration
		wantKind    error
		wantMessage string
		wantStatus  int
	}{
		{
			name: "given success envelope should decode data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer token-1", r.Header.Get(HeaderAuthorization))
				WriteSuccess(r.Context(), w, http.StatusOK, "ok", map[string]interface{}{"id": "order-1"})
			},
			timeout: time.Second,
		},
		{
			name: "given server message should pass it through",
			handler: func(w http.ResponseWriter, r *http.Request) {
				WriteError(r.Context(), w, inErrors.Validation("Shipping address is incomplete", nil))
			},
			timeout:     time.Second,
			wantKind:    inErrors.ErrServer,
			wantMessage: "Shipping address is incomplete",
			wantStatus:  http.StatusBadGateway,
		},
		{
			name: "given not found should keep not found status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				WriteError(r.Context(), w, inErrors.New(inErrors.ErrNotFound, "order not found", nil))
			},
			timeout:     time.Second,
			wantKind:    inErrors.ErrServer,
			wantMessage: "order not found",
			wantStatus:  http.StatusNotFound,
		},
		{
			name: "given slow server should time out",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				WriteSuccess(r.Context(), w, http.StatusOK, "ok", nil)
			},
			timeout:     20 * time.Millisecond,
			wantKind:    inErrors.ErrTimeout,
			wantMessage: inErrors.MessageTimeout,
			wantStatus:  http.StatusGatewayTimeout,
		},
		{
			name: "given non json failure should fall back to unknown",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("<html>oops</html>"))
			},
			timeout:     time.Second,
			wantKind:    inErrors.ErrUnknown,
			wantMessage: inErrors.MessageUnknown,
			wantStatus:  http.StatusInternalServerError,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(test.handler)
			defer server.Close()

			client := NewClient(server.URL+"/", test.timeout)
			out := map[string]string{}
			err := client.Do(context.Background(), http.MethodGet, "/orders/order-1", "token-1", nil, &out)

			if test.wantKind == nil {
				require.NoError(t, err)
				assert.Equal(t, "order-1", out["id"])
				return
			}
			var e *inErrors.Error
			require.True(t, errors.As(err, &e))
			assert.ErrorIs(t, err, test.wantKind)
			assert.Equal(t, test.wantMessage, e.Message)
			assert.Equal(t, test.wantStatus, StatusCode(err))
		})
	}
}
