package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/middleware"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/storefront/internal/registry"
	"github.com/Alturino/storefront/user/pkg/request"
)

type SessionController struct {
	registry *registry.Registry
}

func AttachSessionController(mux *mux.Router, registry *registry.Registry) {
	controller := SessionController{registry: registry}

	router := mux.PathPrefix("/session").Subrouter()
	router.HandleFunc("", controller.Current).Methods(http.MethodGet)
	router.HandleFunc("", controller.Logout).Methods(http.MethodDelete)
	router.HandleFunc("/login", controller.Login).Methods(http.MethodPost)
	router.HandleFunc("/admin/login", controller.LoginAdmin).Methods(http.MethodPost)
}

func (ctrl SessionController) Current(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Current")
	defer span.End()

	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	user, ok := sf.Session.Current()
	if !ok {
		inHttp.WriteError(c, w, inErrors.AuthRequired(nil))
		return
	}
	inHttp.WriteSuccess(c, w, http.StatusOK, "found session", map[string]interface{}{
		"user":    user,
		"isAdmin": sf.Session.IsAdmin(),
	})
}

func (ctrl SessionController) Login(w http.ResponseWriter, r *http.Request) {
	ctrl.login(w, r, false)
}

func (ctrl SessionController) LoginAdmin(w http.ResponseWriter, r *http.Request) {
	ctrl.login(w, r, true)
}

func (ctrl SessionController) login(w http.ResponseWriter, r *http.Request, admin bool) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "SessionController Login").
		Bool("admin", admin).
		Str(log.KeyProcess, "decoding request body").
		Logger()

	logger.Trace().Msg("decoding request body")
	reqBody := request.LoginRequest{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = inErrors.Validation("Request body is not valid JSON.", fmt.Errorf("failed decoding request body with error=%w", err))
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger = logger.With().Object(log.KeyRequest, reqBody).Logger()
	logger.Trace().Msg("decoded request body")

	logger = logger.With().Str(log.KeyProcess, "signing in").Logger()
	logger.Debug().Msg("signing in")
	c = logger.WithContext(c)
	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	login := sf.Login
	if admin {
		login = sf.LoginAdmin
	}
	user, err := login(c, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteError(c, w, err)
		return
	}
	logger.Info().Str(log.KeyUserID, user.ID.String()).Msg("signed in")

	inHttp.WriteSuccess(c, w, http.StatusOK, "signed in", map[string]interface{}{
		"user":    user,
		"isAdmin": sf.Session.IsAdmin(),
	})
}

func (ctrl SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "SessionController Logout")
	defer span.End()

	sf := ctrl.registry.Get(c, middleware.SessionIDFromContext(c))
	sf.Logout(c)
	inHttp.WriteSuccess(c, w, http.StatusOK, "signed out", nil)
}
