package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the admission-control Prometheus metrics. All record methods
// are nil-safe so metrics can be disabled by passing a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Verification metrics
	CodesIssuedTotal   *prometheus.CounterVec
	CodesVerifiedTotal *prometheus.CounterVec
	CodesRejectedTotal *prometheus.CounterVec
	ChannelBlocksTotal *prometheus.CounterVec

	// Registration gate metrics
	RegistrationsAdmittedTotal prometheus.Counter
	RegistrationsRejectedTotal *prometheus.CounterVec
	DomainClaimRacesTotal      prometheus.Counter

	// Notification metrics
	NotificationFailuresTotal *prometheus.CounterVec

	// Waitlist metrics
	InvitesSentTotal    prometheus.Counter
	InviteFailuresTotal prometheus.Counter
}

// NewMetrics creates and registers all admission metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		CodesIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_verification_codes_issued_total",
				Help: "Total verification codes issued per channel",
			},
			[]string{"channel"},
		),
		CodesVerifiedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_verification_codes_verified_total",
				Help: "Total successful code verifications per channel",
			},
			[]string{"channel"},
		),
		CodesRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_verification_codes_rejected_total",
				Help: "Total wrong-code submissions per channel",
			},
			[]string{"channel"},
		),
		ChannelBlocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_verification_blocks_total",
				Help: "Total channel blocks by reason",
			},
			[]string{"channel", "reason"},
		),
		RegistrationsAdmittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdeck_registrations_admitted_total",
				Help: "Total registrations admitted by the gate",
			},
		),
		RegistrationsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_registrations_rejected_total",
				Help: "Total registrations rejected by the gate, by reason",
			},
			[]string{"reason"},
		),
		DomainClaimRacesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdeck_domain_claim_races_total",
				Help: "Total registrations that lost the domain claim race",
			},
		),
		NotificationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crewdeck_notification_failures_total",
				Help: "Total notification dispatch failures by kind",
			},
			[]string{"kind"},
		),
		InvitesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdeck_invites_sent_total",
				Help: "Total waitlist invites sent",
			},
		),
		InviteFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crewdeck_invite_failures_total",
				Help: "Total waitlist invite dispatch failures",
			},
		),
	}

	registry.MustRegister(
		m.CodesIssuedTotal,
		m.CodesVerifiedTotal,
		m.CodesRejectedTotal,
		m.ChannelBlocksTotal,
		m.RegistrationsAdmittedTotal,
		m.RegistrationsRejectedTotal,
		m.DomainClaimRacesTotal,
		m.NotificationFailuresTotal,
		m.InvitesSentTotal,
		m.InviteFailuresTotal,
	)

	return m
}

// Handler returns the prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CodeIssued records a code issuance on a channel.
func (m *Metrics) CodeIssued(channel string) {
	if m == nil {
		return
	}
	m.CodesIssuedTotal.WithLabelValues(channel).Inc()
}

// CodeVerified records a successful verification on a channel.
func (m *Metrics) CodeVerified(channel string) {
	if m == nil {
		return
	}
	m.CodesVerifiedTotal.WithLabelValues(channel).Inc()
}

// CodeRejected records a wrong-code submission on a channel.
func (m *Metrics) CodeRejected(channel string) {
	if m == nil {
		return
	}
	m.CodesRejectedTotal.WithLabelValues(channel).Inc()
}

// ChannelBlocked records a block transition on a channel.
func (m *Metrics) ChannelBlocked(channel, reason string) {
	if m == nil {
		return
	}
	m.ChannelBlocksTotal.WithLabelValues(channel, reason).Inc()
}

// RegistrationAdmitted records an admitted registration.
func (m *Metrics) RegistrationAdmitted() {
	if m == nil {
		return
	}
	m.RegistrationsAdmittedTotal.Inc()
}

// RegistrationRejected records a rejected registration.
func (m *Metrics) RegistrationRejected(reason string) {
	if m == nil {
		return
	}
	m.RegistrationsRejectedTotal.WithLabelValues(reason).Inc()
}

// DomainClaimRace records a lost domain-claim race.
func (m *Metrics) DomainClaimRace() {
	if m == nil {
		return
	}
	m.DomainClaimRacesTotal.Inc()
}

// NotificationFailed records a notification dispatch failure.
func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.NotificationFailuresTotal.WithLabelValues(kind).Inc()
}

// InviteSent records a dispatched invite.
func (m *Metrics) InviteSent() {
	if m == nil {
		return
	}
	m.InvitesSentTotal.Inc()
}

// InviteFailed records a failed invite dispatch.
func (m *Metrics) InviteFailed() {
	if m == nil {
		return
	}
	m.InviteFailuresTotal.Inc()
}
