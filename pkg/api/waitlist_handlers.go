package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/crewdeck/crewdeck/pkg/httputil"
	"github.com/crewdeck/crewdeck/pkg/middleware"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// WaitlistHandlers handles waitlist submission and verification HTTP requests
type WaitlistHandlers struct {
	svc     *waitlist.Service
	limiter *middleware.SubmissionLimiter
	logger  *observability.Logger
}

// NewWaitlistHandlers creates a new waitlist handlers instance
func NewWaitlistHandlers(svc *waitlist.Service, limiter *middleware.SubmissionLimiter, logger *observability.Logger) *WaitlistHandlers {
	return &WaitlistHandlers{
		svc:     svc,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRoutes registers waitlist routes
func (h *WaitlistHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/waitlist", h.submit).Methods("POST")
	router.HandleFunc("/api/waitlist/verify-email", h.verifyEmail).Methods("POST")
	router.HandleFunc("/api/waitlist/verify-phone", h.verifyPhone).Methods("POST")
	router.HandleFunc("/api/waitlist/resend-email", h.resendEmail).Methods("POST")
	router.HandleFunc("/api/waitlist/resend-phone", h.resendPhone).Methods("POST")
	router.HandleFunc("/api/waitlist/stats", h.stats).Methods("GET")
}

// submit handles POST /api/waitlist
func (h *WaitlistHandlers) submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		Phone            string `json:"phone"`
		Name             string `json:"name"`
		Role             string `json:"role"`
		Source           string `json:"source"`
		PreCreateAccount bool   `json:"preCreateAccount"`
		MarketingConsent bool   `json:"marketingConsent"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	if h.limiter != nil {
		if !h.limiter.AllowIP(r.Context(), middleware.ClientIP(r)) {
			httputil.WriteTooManyRequests(w, "too many submissions, try again later")
			return
		}
		if !h.limiter.AllowEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email))) {
			httputil.WriteTooManyRequests(w, "too many submissions for this email, try again later")
			return
		}
	}

	state, err := h.svc.Start(r.Context(), waitlist.StartRequest{
		Email:            req.Email,
		Phone:            req.Phone,
		Name:             req.Name,
		Role:             req.Role,
		Source:           req.Source,
		PreCreateAccount: req.PreCreateAccount,
		MarketingConsent: req.MarketingConsent,
	})
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": string(state)})
}

// verifyEmail handles POST /api/waitlist/verify-email
func (h *WaitlistHandlers) verifyEmail(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.svc.VerifyEmail)
}

// verifyPhone handles POST /api/waitlist/verify-phone
func (h *WaitlistHandlers) verifyPhone(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, h.svc.VerifyPhone)
}

func (h *WaitlistHandlers) verify(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email, code string) error) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Code, "code") {
		return
	}

	if err := fn(r.Context(), req.Email, req.Code); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": "verified"})
}

// resendEmail handles POST /api/waitlist/resend-email
func (h *WaitlistHandlers) resendEmail(w http.ResponseWriter, r *http.Request) {
	h.resend(w, r, h.svc.ResendEmail)
}

// resendPhone handles POST /api/waitlist/resend-phone
func (h *WaitlistHandlers) resendPhone(w http.ResponseWriter, r *http.Request) {
	h.resend(w, r, h.svc.ResendPhone)
}

func (h *WaitlistHandlers) resend(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email string) (waitlist.StartState, error)) {
	var req struct {
		Email string `json:"email"`
	}

	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Email, "email") {
		return
	}

	if h.limiter != nil && !h.limiter.AllowIP(r.Context(), middleware.ClientIP(r)) {
		httputil.WriteTooManyRequests(w, "too many requests, try again later")
		return
	}

	state, err := fn(r.Context(), req.Email)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]string{"status": string(state)})
}

// stats handles GET /api/waitlist/stats
func (h *WaitlistHandlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, stats)
}
