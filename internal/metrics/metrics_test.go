package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRouteTemplate(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register())

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	router.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/"+id, nil))
	}

	m.CheckoutsTotal.WithLabelValues("success").Inc()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `storefront_test_http_requests_total{method="GET",route="/orders/{orderId}",status="404"} 3`), body)
	assert.True(t, strings.Contains(body, `storefront_test_checkouts_total{result="success"} 1`), body)
}

func TestRegisterTwiceFails(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register())
	assert.Error(t, m.Register())
}
