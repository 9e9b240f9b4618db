package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/crewdeck/crewdeck/pkg/httputil"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/register"
)

// AuthHandlers handles registration HTTP requests
type AuthHandlers struct {
	gate   *register.Gate
	logger *observability.Logger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(gate *register.Gate, logger *observability.Logger) *AuthHandlers {
	return &AuthHandlers{
		gate:   gate,
		logger: logger,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/register", h.register).Methods("POST")
	router.HandleFunc("/api/auth/verify-email", h.verifyEmail).Methods("POST")
}

// register handles POST /api/auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		Password         string `json:"password"`
		Username         string `json:"username"`
		FirstName        string `json:"firstName"`
		LastName         string `json:"lastName"`
		OrganizationID   *int64 `json:"organizationId"`
		OrganizationName string `json:"organizationName"`
		InviteToken      string `json:"inviteToken"`
		LegalAccepted    bool   `json:"legalAccepted"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, err := h.gate.Register(r.Context(), register.Request{
		Email:            req.Email,
		Password:         req.Password,
		Username:         req.Username,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		OrganizationID:   req.OrganizationID,
		OrganizationName: req.OrganizationName,
		InviteToken:      req.InviteToken,
		LegalAccepted:    req.LegalAccepted,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteCreated(w, user)
}

// verifyEmail handles POST /api/auth/verify-email
func (h *AuthHandlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Token, "token") {
		return
	}

	user, err := h.gate.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, user)
}
