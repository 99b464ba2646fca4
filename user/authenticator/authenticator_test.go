package authenticator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/user/pkg/request"
)

func TestLocalLogin(t *testing.T) {
	c := context.Background()
	local := NewLocal("secret", time.Hour)

	first, err := local.Login(c, request.LoginRequest{Email: "Asha@Example.com", Password: "pw"})
	require.NoError(t, err)
	second, err := local.Login(c, request.LoginRequest{Email: "asha@example.com", Password: "other"})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "asha", first.User.Name)
	assert.False(t, first.User.IsAdmin)

	jwtToken, err := token.VerifyToken(c, "secret", first.Token, constants.IssuerStorefront, constants.AudienceUser)
	require.NoError(t, err)
	subject, err := jwtToken.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, first.User.ID.String(), subject)

	_, err = local.Login(c, request.LoginRequest{Email: "not-an-email", Password: "pw"})
	assert.ErrorIs(t, err, inErrors.ErrValidation)

	_, err = local.LoginAdmin(c, request.LoginRequest{Email: "asha@example.com", Password: "pw"})
	assert.ErrorIs(t, err, inErrors.ErrForbidden)
}

func TestRemoteLogin(t *testing.T) {
	adminID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/login", r.URL.Path)
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch {
		case body["password"] != "correct-horse":
			inHttp.WriteError(r.Context(), w, inErrors.New(inErrors.ErrAuthRequired, "Invalid email or password", nil))
		case body["email"] == "admin@example.com":
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "logged in", map[string]interface{}{
				"token": "admin-token",
				"user":  map[string]interface{}{"id": adminID.String(), "email": body["email"], "isAdmin": true},
			})
		default:
			inHttp.WriteSuccess(r.Context(), w, http.StatusOK, "logged in", map[string]interface{}{
				"token": "user-token",
				"user":  map[string]interface{}{"id": uuid.NewString(), "email": body["email"]},
			})
		}
	}))
	defer server.Close()

	c := context.Background()
	remote := NewRemote(inHttp.NewClient(server.URL, time.Second))

	tests := []struct {
		name        string
		admin       bool
		req         request.LoginRequest
		wantToken   string
		wantErr     error
		wantMessage string
	}{
		{
			name:      "given valid credentials should return token",
			req:       request.LoginRequest{Email: "asha@example.com", Password: "correct-horse"},
			wantToken: "user-token",
		},
		{
			name:        "given wrong password should pass server message through",
			req:         request.LoginRequest{Email: "asha@example.com", Password: "nope"},
			wantErr:     inErrors.ErrAuthRequired,
			wantMessage: "Invalid email or password",
		},
		{
			name:      "given admin credentials should sign admin in",
			admin:     true,
			req:       request.LoginRequest{Email: "admin@example.com", Password: "correct-horse"},
			wantToken: "admin-token",
		},
		{
			name:    "given non admin on admin login should be forbidden",
			admin:   true,
			req:     request.LoginRequest{Email: "asha@example.com", Password: "correct-horse"},
			wantErr: inErrors.ErrForbidden,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			login := remote.Login
			if test.admin {
				login = remote.LoginAdmin
			}
			actual, err := login(c, test.req)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				if test.wantMessage != "" {
					assert.Equal(t, test.wantMessage, inErrors.Message(err))
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantToken, actual.Token)
		})
	}
}
