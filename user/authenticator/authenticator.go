package authenticator

import (
	"context"

	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

// Authenticator turns credentials into a user and the token order calls are
// made with.
type Authenticator interface {
	Login(c context.Context, req request.LoginRequest) (response.Login, error)
	LoginAdmin(c context.Context, req request.LoginRequest) (response.Login, error)
}
