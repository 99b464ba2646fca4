package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alturino/storefront/backend/internal/repository"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/user/pkg/request"
	"github.com/Alturino/storefront/user/pkg/response"
)

const pgUniqueViolation = "23505"

var (
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrEmailTaken       = errors.New("email already registered")
)

type UserRepository interface {
	InsertUser(c context.Context, arg repository.InsertUserParams) (repository.User, error)
	FindUserByEmail(c context.Context, email string) (repository.User, error)
}

type UserService struct {
	queries  UserRepository
	secret   string
	tokenTTL time.Duration
}

func NewUserService(queries UserRepository, secret string, tokenTTL time.Duration) *UserService {
	return &UserService{queries: queries, secret: secret, tokenTTL: tokenTTL}
}

func userResponse(user repository.User) response.User {
	return response.User{ID: user.ID, Name: user.Name, Email: user.Email, IsAdmin: user.IsAdmin}
}

func (u *UserService) Login(c context.Context, param request.LoginRequest) (response.Login, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(param.Email))
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, email).
		Str(log.KeyProcess, "validating request").
		Logger()

	if err := validate.Struct(param); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Debug().Msg("finding user by email")
	user, err := u.queries.FindUserByEmail(c, email)
	if errors.Is(err, pgx.ErrNoRows) {
		err = inErrors.New(inErrors.ErrAuthRequired, "Invalid email or password.", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed finding user by email with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Debug().Msg("found user by email")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Trace().Msg("verifying password")
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		err = inErrors.New(inErrors.ErrAuthRequired, "Invalid email or password.", errors.Join(ErrPasswordMismatch, err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger.Trace().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "signing token").Logger()
	logger.Trace().Msg("signing token")
	audience := constants.AudienceUser
	if user.IsAdmin {
		audience = constants.AudienceAdmin
	}
	signed, err := token.NewToken(token.Params{
		Secret:   u.secret,
		Issuer:   constants.IssuerBackend,
		Audience: audience,
		Subject:  user.ID.String(),
		Name:     user.Name,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		TTL:      u.tokenTTL,
	})
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Login{}, err
	}
	logger.Info().Msg("signed token")

	return response.Login{Token: signed, User: userResponse(user)}, nil
}

func (u *UserService) Register(c context.Context, param request.Register) (response.User, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Object(log.KeyRequest, param).
		Str(log.KeyProcess, "validating request").
		Logger()

	if err := validate.Struct(param); err != nil {
		err = fmt.Errorf("failed validating request with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcrypt.DefaultCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", errors.Join(err, inErrors.ErrFailedHashToken))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Trace().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Debug().Msg("inserting user")
	user, err := u.queries.InsertUser(c, repository.InsertUserParams{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(param.Name),
		Email:    strings.ToLower(strings.TrimSpace(param.Email)),
		Password: string(hashed),
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		err = inErrors.Validation("This email is already registered.", errors.Join(ErrEmailTaken, err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	if err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.User{}, err
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("inserted user")

	return userResponse(user), nil
}
