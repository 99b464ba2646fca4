package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/storage"
	"github.com/Alturino/storefront/internal/token"
	"github.com/Alturino/storefront/user/pkg/response"
)

// Credentials is what order calls need: the signed in user id and the bearer
// token to send.
type Credentials struct {
	UserID uuid.UUID
	Token  string
}

// Change is delivered to subscribers whenever the signed in identity changes.
// SignedIn is false after sign out.
type Change struct {
	Credentials Credentials
	SignedIn    bool
}

// Session is the auth context of one browser session. The storefront user is
// stored under the user key as {user, token}, the admin under adminUser and
// adminToken.
type Session struct {
	mu          sync.RWMutex
	storage     storage.Storage
	user        *response.Login
	admin       *response.Login
	subscribers map[int]func(context.Context, Change)
	nextSubID   int
	now         func() time.Time
}

func New(c context.Context, s storage.Storage) *Session {
	return newSession(c, s, time.Now)
}

func newSession(c context.Context, s storage.Storage, now func() time.Time) *Session {
	c, span := otel.Tracer.Start(c, "session New")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "session New").
		Str(log.KeyProcess, "rehydrating session").
		Logger()

	session := &Session{storage: s, subscribers: map[int]func(context.Context, Change){}, now: now}
	c = logger.WithContext(c)

	logger.Debug().Msg("rehydrating session")
	user := &response.Login{}
	if session.load(c, storage.KeyUser, user) && session.usable(user.Token) {
		session.user = user
	} else if user.Token != "" {
		session.discard(c, storage.KeyUser)
	}

	admin := &response.Login{}
	if session.load(c, storage.KeyAdminUser, &admin.User) {
		raw, err := s.Get(c, storage.KeyAdminToken)
		if err == nil && session.usable(string(raw)) {
			admin.Token = string(raw)
			session.admin = admin
		} else {
			session.discard(c, storage.KeyAdminUser, storage.KeyAdminToken)
		}
	}
	logger.Debug().
		Bool("user", session.user != nil).
		Bool("admin", session.admin != nil).
		Msg("rehydrated session")

	return session
}

// load decodes key into out. Unreadable values are removed and reported as
// absent.
func (s *Session) load(c context.Context, key string, out interface{}) bool {
	logger := zerolog.Ctx(c).With().Str(log.KeyStorageKey, key).Logger()

	raw, err := s.storage.Get(c, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Error().Err(err).Msgf("failed reading session key with error=%s", err.Error())
		return false
	}
	if err = json.Unmarshal(raw, out); err != nil {
		logger.Warn().Err(err).Msg("discarding unreadable session key")
		s.discard(c, key)
		return false
	}
	return true
}

func (s *Session) usable(raw string) bool {
	return raw != "" && !token.Expired(raw, s.now())
}

func (s *Session) discard(c context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.storage.Remove(c, key); err != nil {
			zerolog.Ctx(c).Error().Err(err).Str(log.KeyStorageKey, key).Msgf("failed removing session key with error=%s", err.Error())
		}
	}
}

func (s *Session) SignIn(c context.Context, login response.Login) error {
	c, span := otel.Tracer.Start(c, "Session SignIn")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session SignIn").
		Str(log.KeyUserID, login.User.ID.String()).
		Str(log.KeyProcess, "validating login").
		Logger()

	logger.Trace().Msg("validating login")
	if login.Token == "" || login.User.ID == uuid.Nil {
		err := fmt.Errorf("failed validating login with error=%w", inErrors.ErrEmptyAuth)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.AuthRequired(err)
	}
	logger.Trace().Msg("validated login")

	logger = logger.With().Str(log.KeyProcess, "storing user").Logger()
	logger.Trace().Msg("storing user")
	raw, err := json.Marshal(login)
	if err != nil {
		err = fmt.Errorf("failed marshaling user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err = s.storage.Set(c, storage.KeyUser, raw); err != nil {
		err = fmt.Errorf("failed storing user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Trace().Msg("stored user")

	s.mu.Lock()
	s.user = &login
	change := s.changeLocked()
	s.mu.Unlock()
	logger.Info().Msg("signed in")

	s.notify(c, change)
	return nil
}

func (s *Session) SignInAdmin(c context.Context, login response.Login) error {
	c, span := otel.Tracer.Start(c, "Session SignInAdmin")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session SignInAdmin").
		Str(log.KeyUserID, login.User.ID.String()).
		Str(log.KeyProcess, "validating admin login").
		Logger()

	logger.Trace().Msg("validating admin login")
	if login.Token == "" || login.User.ID == uuid.Nil {
		err := fmt.Errorf("failed validating admin login with error=%w", inErrors.ErrEmptyAuth)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.AuthRequired(err)
	}
	if !login.User.IsAdmin {
		err := fmt.Errorf("failed validating admin login with error=%w", inErrors.ErrForbidden)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return inErrors.New(inErrors.ErrForbidden, "This account is not an administrator.", err)
	}
	logger.Trace().Msg("validated admin login")

	logger = logger.With().Str(log.KeyProcess, "storing admin").Logger()
	logger.Trace().Msg("storing admin")
	raw, err := json.Marshal(login.User)
	if err != nil {
		err = fmt.Errorf("failed marshaling admin with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err = s.storage.Set(c, storage.KeyAdminUser, raw); err != nil {
		err = fmt.Errorf("failed storing admin user with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	if err = s.storage.Set(c, storage.KeyAdminToken, []byte(login.Token)); err != nil {
		err = fmt.Errorf("failed storing admin token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Trace().Msg("stored admin")

	s.mu.Lock()
	s.admin = &login
	change := s.changeLocked()
	s.mu.Unlock()
	logger.Info().Msg("signed in admin")

	s.notify(c, change)
	return nil
}

// SignOut forgets both identities and their stored keys.
func (s *Session) SignOut(c context.Context) {
	c, span := otel.Tracer.Start(c, "Session SignOut")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Session SignOut").
		Str(log.KeyProcess, "removing session keys").
		Logger()

	logger.Trace().Msg("removing session keys")
	s.discard(logger.WithContext(c), storage.KeyUser, storage.KeyAdminUser, storage.KeyAdminToken)
	logger.Trace().Msg("removed session keys")

	s.mu.Lock()
	s.user = nil
	s.admin = nil
	s.mu.Unlock()
	logger.Info().Msg("signed out")

	s.notify(c, Change{})
}

// Current returns the storefront user, falling back to the admin.
func (s *Session) Current() (response.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if login := s.activeLocked(); login != nil {
		return login.User, true
	}
	return response.User{}, false
}

func (s *Session) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	change := s.changeLocked()
	return change.Credentials, change.SignedIn
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin != nil && s.admin.User.IsAdmin
}

// Subscribe registers fn for identity changes and returns its unsubscribe.
// fn runs on the goroutine that changed the identity.
func (s *Session) Subscribe(fn func(context.Context, Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) activeLocked() *response.Login {
	if s.user != nil {
		return s.user
	}
	return s.admin
}

func (s *Session) changeLocked() Change {
	login := s.activeLocked()
	if login == nil {
		return Change{}
	}
	return Change{
		Credentials: Credentials{UserID: login.User.ID, Token: login.Token},
		SignedIn:    true,
	}
}

func (s *Session) notify(c context.Context, change Change) {
	s.mu.RLock()
	subscribers := make([]func(context.Context, Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subscribers {
		fn(c, change)
	}
}
