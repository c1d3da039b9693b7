// Package router exposes the service over HTTP. Every route runs with a
// session attached; URL management routes additionally require a logged-in user.
package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tinyapp/internal/auth"
	"github.com/patric-chuzhbe/tinyapp/internal/gzippedhttp"
	"github.com/patric-chuzhbe/tinyapp/internal/logger"
	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/service"
)

type sessionKeeper interface {
	WithSession(h http.Handler) http.Handler
	RequireUser(h http.Handler) http.Handler
	LogIn(response http.ResponseWriter, request *http.Request, userID string) error
	LogOut(response http.ResponseWriter, request *http.Request) error
}

type subnetGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

// ErrAlreadyLoggedIn is returned to a logged-in session trying to register.
var ErrAlreadyLoggedIn = errors.New("already logged in")

var errBadRequestBody = errors.New("the request body is not valid JSON")

// Router holds the dependencies shared by the HTTP handlers.
type Router struct {
	svc        *service.Service
	sessions   sessionKeeper
	validate   *validator.Validate
	loginMatch models.LoginMatch
}

// New builds the chi mux with every route of the service.
func New(
	svc *service.Service,
	sessions sessionKeeper,
	guard subnetGuard,
	loginMatch models.LoginMatch,
) *chi.Mux {
	theRouter := &Router{
		svc:        svc,
		sessions:   sessions,
		validate:   validator.New(),
		loginMatch: loginMatch,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipResponse)
	router.Use(sessions.WithSession)

	router.Post(`/register`, theRouter.PostRegister)
	router.Post(`/login`, theRouter.PostLogin)
	router.Post(`/logout`, theRouter.PostLogout)
	router.Get(`/urls/{shortKey}`, theRouter.GetUrlsShortkey)
	router.Get(`/u/{shortKey}`, theRouter.GetUShortkey)
	router.Get(`/ping`, theRouter.GetPing)
	router.With(guard.TrustedOnly).Get(`/api/internal/stats`, theRouter.GetApiinternalstats)

	router.Group(func(authorized chi.Router) {
		authorized.Use(sessions.RequireUser)
		authorized.Get(`/urls`, theRouter.GetUrls)
		authorized.Post(`/urls`, theRouter.PostUrls)
		authorized.Put(`/urls/{shortKey}`, theRouter.PutUrlsShortkey)
		authorized.Delete(`/urls/{shortKey}`, theRouter.DeleteUrlsShortkey)
	})

	return router
}

func (theRouter *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	if auth.FromContext(request.Context()).IsLoggedIn() {
		writeError(response, request, ErrAlreadyLoggedIn)
		return
	}

	var requestDTO models.RegisterRequest
	if err := render.DecodeJSON(request.Body, &requestDTO); err != nil {
		writeError(response, request, errBadRequestBody)
		return
	}

	usr, err := theRouter.svc.RegisterUser(
		request.Context(),
		requestDTO.Username,
		requestDTO.Email,
		requestDTO.Password,
	)
	if err != nil {
		writeError(response, request, err)
		return
	}

	if err := theRouter.sessions.LogIn(response, request, usr.ID); err != nil {
		writeError(response, request, err)
		return
	}

	render.Status(request, http.StatusCreated)
	render.JSON(response, request, models.UserResponse{ID: usr.ID, Username: usr.Username, Email: usr.Email})
}

func (theRouter *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var requestDTO models.LoginRequest
	if err := render.DecodeJSON(request.Body, &requestDTO); err != nil {
		writeError(response, request, errBadRequestBody)
		return
	}
	if err := theRouter.validate.Struct(requestDTO); err != nil {
		writeError(response, request, service.ErrIncompleteFields)
		return
	}

	usr, err := theRouter.svc.Authenticate(
		request.Context(),
		requestDTO.Login,
		requestDTO.Password,
		theRouter.loginMatch,
	)
	if err != nil {
		writeError(response, request, err)
		return
	}

	if err := theRouter.sessions.LogIn(response, request, usr.ID); err != nil {
		writeError(response, request, err)
		return
	}

	render.JSON(response, request, models.UserResponse{ID: usr.ID, Username: usr.Username, Email: usr.Email})
}

func (theRouter *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.sessions.LogOut(response, request); err != nil {
		writeError(response, request, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

func (theRouter *Router) GetUrls(response http.ResponseWriter, request *http.Request) {
	session := auth.FromContext(request.Context())

	urls, err := theRouter.svc.UrlsForUser(request.Context(), session.UserID)
	if err != nil {
		writeError(response, request, err)
		return
	}

	result := make([]models.URLListItem, 0, len(urls))
	for _, item := range urls {
		result = append(result, toListItem(item.Record))
	}

	render.JSON(response, request, result)
}

func (theRouter *Router) PostUrls(response http.ResponseWriter, request *http.Request) {
	session := auth.FromContext(request.Context())

	var requestDTO models.URLRequest
	if err := render.DecodeJSON(request.Body, &requestDTO); err != nil {
		writeError(response, request, errBadRequestBody)
		return
	}
	if err := theRouter.validate.Struct(requestDTO); err != nil {
		writeError(response, request, service.ErrInvalidURL)
		return
	}

	shortKey, err := theRouter.svc.CreateShortURL(request.Context(), requestDTO.LongURL, session.UserID)
	if err != nil {
		writeError(response, request, err)
		return
	}

	record, err := theRouter.svc.GetShortURL(request.Context(), shortKey)
	if err != nil {
		writeError(response, request, err)
		return
	}

	render.Status(request, http.StatusCreated)
	render.JSON(response, request, models.CreateURLResponse{ShortKey: shortKey, LongURL: record.LongURL})
}

// GetUrlsShortkey reports an unknown key before checking the session,
// so anonymous visitors still learn that a key does not exist.
func (theRouter *Router) GetUrlsShortkey(response http.ResponseWriter, request *http.Request) {
	shortKey := chi.URLParam(request, "shortKey")

	record, err := theRouter.svc.GetShortURL(request.Context(), shortKey)
	if err != nil {
		writeError(response, request, err)
		return
	}

	session := auth.FromContext(request.Context())
	if !session.IsLoggedIn() {
		writeError(response, request, service.ErrUnauthenticated)
		return
	}
	if record.OwnerUserID != session.UserID {
		writeError(response, request, service.ErrNotOwner)
		return
	}

	stats, err := theRouter.svc.GetVisitStats(request.Context(), shortKey)
	if err != nil {
		writeError(response, request, err)
		return
	}

	render.JSON(response, request, models.URLDetailsResponse{
		URLListItem: toListItem(record),
		Visits:      stats,
		VisitLog:    record.VisitLog,
	})
}

func (theRouter *Router) PutUrlsShortkey(response http.ResponseWriter, request *http.Request) {
	shortKey := chi.URLParam(request, "shortKey")
	if !theRouter.requireOwner(response, request, shortKey) {
		return
	}

	var requestDTO models.URLRequest
	if err := render.DecodeJSON(request.Body, &requestDTO); err != nil {
		writeError(response, request, errBadRequestBody)
		return
	}
	if err := theRouter.validate.Struct(requestDTO); err != nil {
		writeError(response, request, service.ErrInvalidURL)
		return
	}

	updated, err := theRouter.svc.UpdateShortURL(request.Context(), shortKey, requestDTO.LongURL)
	if err != nil {
		writeError(response, request, err)
		return
	}

	render.JSON(response, request, models.UpdateURLResponse{Updated: updated})
}

func (theRouter *Router) DeleteUrlsShortkey(response http.ResponseWriter, request *http.Request) {
	shortKey := chi.URLParam(request, "shortKey")
	if !theRouter.requireOwner(response, request, shortKey) {
		return
	}

	if err := theRouter.svc.DeleteShortURL(request.Context(), shortKey); err != nil {
		writeError(response, request, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// GetUShortkey is the public redirect. Every resolution is logged as a visit.
func (theRouter *Router) GetUShortkey(response http.ResponseWriter, request *http.Request) {
	shortKey := chi.URLParam(request, "shortKey")

	record, err := theRouter.svc.GetShortURL(request.Context(), shortKey)
	if err != nil {
		writeError(response, request, err)
		return
	}

	session := auth.FromContext(request.Context())
	if err := theRouter.svc.RecordVisit(request.Context(), shortKey, session.VisitorID); err != nil {
		writeError(response, request, err)
		return
	}

	http.Redirect(response, request, record.LongURL, http.StatusTemporaryRedirect)
}

func (theRouter *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := theRouter.svc.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `theRouter.svc.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

func (theRouter *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	stats, err := theRouter.svc.GetInternalStats(request.Context())
	if err != nil {
		writeError(response, request, err)
		return
	}

	render.JSON(response, request, stats)
}

// requireOwner writes 403 and returns false unless the session user owns shortKey.
// An unknown key is owned by nobody.
func (theRouter *Router) requireOwner(response http.ResponseWriter, request *http.Request, shortKey string) bool {
	session := auth.FromContext(request.Context())

	owns, err := theRouter.svc.UserOwnsURL(request.Context(), session.UserID, shortKey)
	if err != nil {
		writeError(response, request, err)
		return false
	}
	if !owns {
		writeError(response, request, service.ErrNotOwner)
		return false
	}

	return true
}

func toListItem(record *models.ShortURL) models.URLListItem {
	return models.URLListItem{
		ShortKey:       record.ShortKey,
		LongURL:        record.LongURL,
		CreatedAt:      record.CreatedAt,
		LastModifiedAt: record.LastModifiedAt,
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, ErrAlreadyLoggedIn):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation), errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func writeError(response http.ResponseWriter, request *http.Request, err error) {
	status := statusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Log.Debugln("Unexpected error while handling", request.Method, request.URL.Path, zap.Error(err))
		message = http.StatusText(status)
	}

	render.Status(request, status)
	render.JSON(response, request, models.ErrorResponse{Error: message})
}
