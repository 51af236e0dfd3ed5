package test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog/log"
)

// requestContext is passed into every request handler.
type requestContext struct {
	vars   map[string]string
	claims *model.TokenClaims // nil for unauthenticated routes
}

// handler is a function type that handles an HTTP request to the fake service.
type handler func(http.ResponseWriter, *http.Request, *requestContext) error

// apiHandler wraps a handler, optionally requiring a valid bearer token.
type apiHandler struct {
	svc  *Service
	auth bool
	h    handler
}

// ServeHTTP builds the context and passes onto the real handler.
func (a apiHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := &requestContext{vars: mux.Vars(req)}
	if a.auth {
		claims, msg := a.svc.verify(req.Header.Get("Authorization"))
		if claims == nil {
			_ = renderJSONStatus(w, http.StatusUnauthorized, map[string]any{"code": 401, "message": msg})
			return
		}
		ctx.claims = claims
	}
	if err := a.h(w, req, ctx); err != nil {
		log.Error().Str("module", "test").Str("path", req.RequestURI).Err(err).
			Msg("Error handling request")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) routes() http.Handler {
	r := mux.NewRouter()
	public := func(h handler) http.Handler { return apiHandler{svc: s, h: h} }
	private := func(h handler) http.Handler { return apiHandler{svc: s, auth: true, h: h} }

	r.Path("/domains").Handler(public(s.domainList)).Methods("GET")
	r.Path("/domains/{id}").Handler(public(s.domainShow)).Methods("GET")
	r.Path("/accounts").Handler(public(s.accountCreate)).Methods("POST")
	r.Path("/accounts/{id}").Handler(private(s.accountShow)).Methods("GET")
	r.Path("/accounts/{id}").Handler(private(s.accountDelete)).Methods("DELETE")
	r.Path("/me").Handler(private(s.me)).Methods("GET")
	r.Path("/token").Handler(public(s.token)).Methods("POST")
	r.Path("/messages").Handler(private(s.messageList)).Methods("GET")
	r.Path("/messages/{id}").Handler(private(s.messageShow)).Methods("GET")
	r.Path("/messages/{id}").Handler(private(s.messageMarkSeen)).Methods("PATCH")
	r.Path("/messages/{id}").Handler(private(s.messageDelete)).Methods("DELETE")
	r.Path("/messages/{id}/download").Handler(private(s.messageSource)).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Str("module", "test").Str("method", req.Method).Str("path", req.RequestURI).
			Msg("No route")
		renderError(w, http.StatusNotFound, "Not Found")
	})
	r.Use(requestLoggingWrapper)
	return r
}

// requestLoggingWrapper returns middleware that logs client requests.
func requestLoggingWrapper(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debug().Str("module", "test").Str("remote", req.RemoteAddr).Str("method", req.Method).
			Str("path", req.RequestURI).Bool("auth", req.Header.Get("Authorization") != "").
			Msg("Request")
		next.ServeHTTP(w, req)
	})
}

func (s *Service) domainList(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	n, ok := pageParam(w, req)
	if !ok {
		return nil
	}
	domains, total := s.domainPage(n)
	return renderPage(w, "/domains", n, s.pageSize, domains, total)
}

func (s *Service) domainShow(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	d, ok := s.getDomain(ctx.vars["id"])
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return renderJSON(w, d)
}

func (s *Service) accountCreate(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	creds, ok := decodeCredentials(w, req)
	if !ok {
		return nil
	}
	a, violation := s.createAccount(creds.Address, creds.Password)
	if a == nil {
		renderError(w, http.StatusUnprocessableEntity, violation)
		return nil
	}
	return renderJSONStatus(w, http.StatusCreated, a)
}

func (s *Service) accountShow(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	id := ctx.vars["id"]
	if id != ctx.claims.AccountID {
		renderError(w, http.StatusForbidden, "Access Denied.")
		return nil
	}
	a, ok := s.getAccount(id)
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return renderJSON(w, a)
}

func (s *Service) accountDelete(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	id := ctx.vars["id"]
	if id != ctx.claims.AccountID {
		renderError(w, http.StatusForbidden, "Access Denied.")
		return nil
	}
	if !s.deleteAccount(id) {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) me(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	a, ok := s.getAccount(ctx.claims.AccountID)
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return renderJSON(w, a)
}

func (s *Service) token(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	creds, ok := decodeCredentials(w, req)
	if !ok {
		return nil
	}
	a, ok := s.authenticate(creds.Address, creds.Password)
	if !ok {
		return renderJSONStatus(w, http.StatusUnauthorized,
			map[string]any{"code": 401, "message": "Invalid credentials."})
	}
	tok, err := s.issue(a)
	if err != nil {
		return err
	}
	return renderJSON(w, &model.TokenResponse{ID: a.ID, Token: tok})
}

func (s *Service) messageList(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	n, ok := pageParam(w, req)
	if !ok {
		return nil
	}
	intros, total := s.messagePage(ctx.claims.AccountID, n)
	return renderPage(w, "/messages", n, s.pageSize, intros, total)
}

func (s *Service) messageShow(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	m, _, ok := s.findMessage(ctx.claims.AccountID, ctx.vars["id"])
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return renderJSON(w, m)
}

func (s *Service) messageMarkSeen(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	var patch struct {
		Seen *bool `json:"seen"`
	}
	if err := json.NewDecoder(req.Body).Decode(&patch); err != nil || patch.Seen == nil {
		renderError(w, http.StatusBadRequest, "seen: This value should not be null.")
		return nil
	}
	m, ok := s.setSeen(ctx.claims.AccountID, ctx.vars["id"], *patch.Seen)
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return renderJSON(w, m)
}

func (s *Service) messageDelete(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	if !s.deleteMessage(ctx.claims.AccountID, ctx.vars["id"]) {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Service) messageSource(w http.ResponseWriter, req *http.Request, ctx *requestContext) error {
	_, source, ok := s.findMessage(ctx.claims.AccountID, ctx.vars["id"])
	if !ok {
		renderError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	w.Header().Set("Content-Type", "message/rfc822")
	_, err := w.Write(source)
	return err
}

// issue signs a token for account a.
func (s *Service) issue(a *model.Account) (model.Token, error) {
	now := s.now()
	claims := &model.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		AccountID: a.ID,
		Username:  a.Address,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return model.Token(signed), nil
}

// verify checks the bearer token in an Authorization header, returning its claims or the
// reason it was refused.
func (s *Service) verify(header string) (*model.TokenClaims, string) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, "JWT Token not found"
	}
	claims := &model.TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock))
	if err != nil {
		log.Debug().Str("module", "test").Err(err).Msg("Token refused")
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "Expired JWT Token"
		}
		return nil, "Invalid JWT Token"
	}
	if _, ok := s.getAccount(claims.AccountID); !ok {
		return nil, "Invalid JWT Token"
	}
	return claims, ""
}

// pageParam parses the page query parameter, which defaults to 1. It renders an error and
// returns false when the parameter is invalid.
func pageParam(w http.ResponseWriter, req *http.Request) (int, bool) {
	p := req.URL.Query().Get("page")
	if p == "" {
		return 1, true
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		renderError(w, http.StatusBadRequest, "Page should be an integer")
		return 0, false
	}
	if n < 1 {
		renderError(w, http.StatusBadRequest, "Page should not be less than 1")
		return 0, false
	}
	return n, true
}

func decodeCredentials(w http.ResponseWriter, req *http.Request) (*model.Credentials, bool) {
	creds := &model.Credentials{}
	if err := json.NewDecoder(req.Body).Decode(creds); err != nil {
		renderError(w, http.StatusBadRequest, "Syntax error")
		return nil, false
	}
	return creds, true
}

// renderPage writes page n of a collection at iri, linking the next page when there is one.
func renderPage[T any](w http.ResponseWriter, iri string, n, size int, items []T, total int) error {
	pages := pageCount(size, total)
	view := &model.HydraView{
		ID:    fmt.Sprintf("%s?page=%d", iri, n),
		Type:  "hydra:PartialCollectionView",
		First: iri + "?page=1",
		Last:  fmt.Sprintf("%s?page=%d", iri, pages),
	}
	if n > 1 {
		view.Previous = fmt.Sprintf("%s?page=%d", iri, n-1)
	}
	if n < pages {
		view.Next = fmt.Sprintf("%s?page=%d", iri, n+1)
	}
	return renderJSON(w, model.NewLinkedCollection(items, total, view))
}

func renderError(w http.ResponseWriter, status int, description string) {
	_ = renderJSONStatus(w, status, map[string]any{
		"@context":          "/contexts/Error",
		"@type":             "hydra:Error",
		"hydra:title":       "An error occurred",
		"hydra:description": description,
	})
}

func renderJSON(w http.ResponseWriter, data any) error {
	return renderJSONStatus(w, http.StatusOK, data)
}

func renderJSONStatus(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/ld+json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
