package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/crewdeck/crewdeck/pkg/httputil"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

// AdminHandlers handles operator-facing waitlist management requests.
// Authentication for these routes is expected at the ingress layer.
type AdminHandlers struct {
	svc    *waitlist.Service
	logger *observability.Logger
}

// NewAdminHandlers creates a new admin handlers instance
func NewAdminHandlers(svc *waitlist.Service, logger *observability.Logger) *AdminHandlers {
	return &AdminHandlers{
		svc:    svc,
		logger: logger,
	}
}

// RegisterRoutes registers admin routes
func (h *AdminHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/admin/waitlist/{email}/invite", h.invite).Methods("POST")
	router.HandleFunc("/api/admin/waitlist/{email}", h.get).Methods("GET")
}

// invite handles POST /api/admin/waitlist/{email}/invite
func (h *AdminHandlers) invite(w http.ResponseWriter, r *http.Request) {
	email, ok := httputil.ParsePathStringOrError(w, r, "email")
	if !ok {
		return
	}

	var req struct {
		CohortTag string `json:"cohortTag"`
	}
	// The body is optional; an empty cohort tag falls back to the default.
	if r.Body != nil && r.ContentLength != 0 {
		if !httputil.ParseJSONOrError(w, r, &req) {
			return
		}
	}

	entry, err := h.svc.MarkInvited(r.Context(), email, req.CohortTag)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, entrySummary(entry))
}

// get handles GET /api/admin/waitlist/{email}
func (h *AdminHandlers) get(w http.ResponseWriter, r *http.Request) {
	email, ok := httputil.ParsePathStringOrError(w, r, "email")
	if !ok {
		return
	}

	entry, err := h.svc.Find(r.Context(), email)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteSuccess(w, entrySummary(entry))
}

// EntrySummary is the operator-facing view of a waitlist entry. Verification
// codes and invite token hashes never leave the service.
type EntrySummary struct {
	Email              string     `json:"email"`
	Phone              string     `json:"phone,omitempty"`
	Name               string     `json:"name,omitempty"`
	Role               string     `json:"role,omitempty"`
	Source             string     `json:"source,omitempty"`
	Status             string     `json:"status"`
	EmailVerified      bool       `json:"emailVerified"`
	PhoneVerified      bool       `json:"phoneVerified"`
	CohortTag          *string    `json:"cohortTag,omitempty"`
	InvitedAt          *time.Time `json:"invitedAt,omitempty"`
	ActivatedAt        *time.Time `json:"activatedAt,omitempty"`
	InviteFailureCount int        `json:"inviteFailureCount,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func entrySummary(e *waitlist.Entry) *EntrySummary {
	return &EntrySummary{
		Email:              e.Email,
		Phone:              e.Phone,
		Name:               e.Name,
		Role:               e.Role,
		Source:             e.Source,
		Status:             string(e.Status),
		EmailVerified:      e.EmailState.Verified(),
		PhoneVerified:      e.PhoneState.Verified(),
		CohortTag:          e.CohortTag,
		InvitedAt:          e.InvitedAt,
		ActivatedAt:        e.ActivatedAt,
		InviteFailureCount: e.InviteFailureCount,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}
