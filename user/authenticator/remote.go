package authenticator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

// Remote signs in against the backend's /users/login endpoint.
type Remote struct {
	client *inHttp.Client
}

func NewRemote(client *inHttp.Client) *Remote {
	return &Remote{client: client}
}

func (r *Remote) Login(c context.Context, req request.LoginRequest) (response.Login, error) {
	c, span := otel.Tracer.Start(c, "Remote Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Remote Login").
		Object(log.KeyRequest, req).
		Str(log.KeyProcess, "validating request").
		Logger()

	logger.Trace().Msg("validating request")
	if err := validate.Struct(req); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger.Trace().Msg("validated request")

	logger = logger.With().Str(log.KeyProcess, "logging in").Logger()
	logger.Debug().Msg("logging in")
	login := response.Login{}
	err := r.client.Do(logger.WithContext(c), http.MethodPost, "/users/login", "", req.Credentials(), &login)
	if err != nil {
		err = fmt.Errorf("failed logging in with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	if login.Token == "" {
		err = fmt.Errorf("failed logging in with error=%w", inErrors.ErrEmptyAuth)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, inErrors.Unknown(err)
	}
	logger.Debug().Str(log.KeyUserID, login.User.ID.String()).Msg("logged in")

	return login, nil
}

func (r *Remote) LoginAdmin(c context.Context, req request.LoginRequest) (response.Login, error) {
	login, err := r.Login(c, req)
	if err != nil {
		return response.Login{}, err
	}
	if !login.User.IsAdmin {
		return response.Login{}, inErrors.New(
			inErrors.ErrForbidden,
			"This account is not an administrator.",
			inErrors.ErrForbidden,
		)
	}
	return login, nil
}
