package authenticator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

// Local signs storefront users in without a user service. The user id is
// derived from the email so the same shopper keeps the same orders.
type Local struct {
	secret string
	ttl    time.Duration
}

func NewLocal(secret string, ttl time.Duration) *Local {
	return &Local{secret: secret, ttl: ttl}
}

func UserIDFromEmail(email string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email))))
}

func (l *Local) Login(c context.Context, req request.LoginRequest) (response.Login, error) {
	c, span := otel.Tracer.Start(c, "Local Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Local Login").
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

	logger = logger.With().Str(log.KeyProcess, "synthesizing user").Logger()
	logger.Trace().Msg("synthesizing user")
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := response.User{
		ID:    UserIDFromEmail(email),
		Name:  strings.SplitN(email, "@", 2)[0],
		Email: email,
	}
	logger.Trace().Object("user", user).Msg("synthesized user")

	logger = logger.With().Str(log.KeyProcess, "minting token").Logger()
	logger.Trace().Msg("minting token")
	raw, err := token.NewToken(token.Params{
		Secret:   l.secret,
		Issuer:   constants.IssuerStorefront,
		Audience: constants.AudienceUser,
		Subject:  user.ID.String(),
		Name:     user.Name,
		Email:    user.Email,
		TTL:      l.ttl,
	})
	if err != nil {
		err = fmt.Errorf("failed minting token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, inErrors.Unknown(err)
	}
	logger.Debug().Msg("minted token")

	return response.Login{Token: raw, User: user}, nil
}

// LoginAdmin always fails, administrators need a real account.
func (l *Local) LoginAdmin(c context.Context, req request.LoginRequest) (response.Login, error) {
	zerolog.Ctx(c).Warn().Str(log.KeyTag, "Local LoginAdmin").Msg("admin sign in needs the remote authenticator")
	return response.Login{}, inErrors.New(
		inErrors.ErrForbidden,
		"Administrator sign in is not available.",
		inErrors.ErrForbidden,
	)
}
