package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrInvalidWorkspaceStatusTransition    = errors.New("core: invalid workspace status transition")
	ErrInvalidLeadStatusTransition         = errors.New("core: invalid lead status transition")
	ErrInvalidEndpointStatusTransition     = errors.New("core: invalid endpoint status transition")
	ErrInvalidSubscriptionStatusTransition = errors.New("core: invalid subscription status transition")
	ErrInvalidMemberRole                   = errors.New("core: invalid member role")
	ErrInvalidProviderTag                  = errors.New("core: invalid provider tag")
	ErrLeadNotFound                        = errors.New("core: lead not found")
	ErrWorkspaceNotFound                   = errors.New("core: workspace not found")
	ErrEndpointNotFound                    = errors.New("core: endpoint not found")
)

type WorkspaceStatus string

const (
	WorkspaceStatusActive    WorkspaceStatus = "active"
	WorkspaceStatusSuspended WorkspaceStatus = "suspended"
	WorkspaceStatusDeleted   WorkspaceStatus = "deleted"
)

type Workspace struct {
	ID        string
	Name      string
	Slug      string
	PlanID    string
	Status    WorkspaceStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Workspace) TransitionTo(status WorkspaceStatus, now time.Time) error {
	if w == nil {
		return nil
	}
	if w.Status == status {
		w.UpdatedAt = now
		return nil
	}
	if !workspaceTransitionAllowed(w.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidWorkspaceStatusTransition, w.Status, status)
	}
	w.Status = status
	w.UpdatedAt = now
	return nil
}

func workspaceTransitionAllowed(current, next WorkspaceStatus) bool {
	allowed := map[WorkspaceStatus]map[WorkspaceStatus]struct{}{
		WorkspaceStatusActive: {
			WorkspaceStatusSuspended: {},
			WorkspaceStatusDeleted:   {},
		},
		WorkspaceStatusSuspended: {
			WorkspaceStatusActive:  {},
			WorkspaceStatusDeleted: {},
		},
		WorkspaceStatusDeleted: {},
	}
	_, ok := allowed[current][next]
	return ok
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
	MemberRoleViewer MemberRole = "viewer"
)

func ParseMemberRole(raw string) (MemberRole, error) {
	role := MemberRole(strings.TrimSpace(strings.ToLower(raw)))
	switch role {
	case MemberRoleOwner, MemberRoleAdmin, MemberRoleMember, MemberRoleViewer:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMemberRole, raw)
	}
}

type MemberStatus string

const (
	MemberStatusInvited MemberStatus = "invited"
	MemberStatusActive  MemberStatus = "active"
	MemberStatusRemoved MemberStatus = "removed"
)

type Member struct {
	ID          string
	WorkspaceID string
	UserID      string
	Email       string
	Role        MemberRole
	Status      MemberStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanonicalLead is the common target of every provider transform:
// {name, email, phone, company, source, value, custom_fields}.
type CanonicalLead struct {
	Name         string
	Email        string
	Phone        string
	Company      string
	Source       string
	Value        float64
	CustomFields map[string]any
}

func (l CanonicalLead) Validate() error {
	if strings.TrimSpace(l.Name) == "" && strings.TrimSpace(l.Email) == "" {
		return fmt.Errorf("core: lead requires a name or an email")
	}
	if email := strings.TrimSpace(l.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fmt.Errorf("core: invalid lead email %q", email)
		}
	}
	if l.Value < 0 {
		return fmt.Errorf("core: lead value must not be negative")
	}
	return nil
}

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type Lead struct {
	ID          string
	WorkspaceID string
	EndpointID  string
	OwnerID     string
	Status      LeadStatus
	CanonicalLead
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (l *Lead) TransitionTo(status LeadStatus, now time.Time) error {
	if l == nil {
		return nil
	}
	if l.Status == status {
		l.UpdatedAt = now
		return nil
	}
	if !leadTransitionAllowed(l.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidLeadStatusTransition, l.Status, status)
	}
	l.Status = status
	l.UpdatedAt = now
	return nil
}

func leadTransitionAllowed(current, next LeadStatus) bool {
	allowed := map[LeadStatus]map[LeadStatus]struct{}{
		LeadStatusNew: {
			LeadStatusContacted: {},
			LeadStatusLost:      {},
		},
		LeadStatusContacted: {
			LeadStatusQualified: {},
			LeadStatusLost:      {},
		},
		LeadStatusQualified: {
			LeadStatusConverted: {},
			LeadStatusLost:      {},
		},
		LeadStatusLost: {
			LeadStatusContacted: {},
		},
		LeadStatusConverted: {},
	}
	_, ok := allowed[current][next]
	return ok
}

// ProviderTag identifies a webhook payload shape. The set is closed: the
// normalizer only understands these shapes, plus workspace field rules for
// ProviderCustom.
type ProviderTag string

const (
	ProviderFacebook    ProviderTag = "facebook"
	ProviderGoogleForms ProviderTag = "google_forms"
	ProviderZapier      ProviderTag = "zapier"
	ProviderMailchimp   ProviderTag = "mailchimp"
	ProviderHubSpot     ProviderTag = "hubspot"
	ProviderSalesforce  ProviderTag = "salesforce"
	ProviderCustom      ProviderTag = "custom"
)

func ParseProviderTag(raw string) (ProviderTag, error) {
	tag := ProviderTag(strings.TrimSpace(strings.ToLower(raw)))
	switch tag {
	case ProviderFacebook, ProviderGoogleForms, ProviderZapier,
		ProviderMailchimp, ProviderHubSpot, ProviderSalesforce, ProviderCustom:
		return tag, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProviderTag, raw)
	}
}

type EndpointStatus string

const (
	EndpointStatusActive   EndpointStatus = "active"
	EndpointStatusPaused   EndpointStatus = "paused"
	EndpointStatusDisabled EndpointStatus = "disabled"
)

type WebhookEndpoint struct {
	ID              string
	PublicID        string
	WorkspaceID     string
	Name            string
	Provider        ProviderTag
	EncryptedSecret []byte
	Status          EndpointStatus
	FieldRules      []FieldRule
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (e *WebhookEndpoint) TransitionTo(status EndpointStatus, reason string, now time.Time) error {
	if e == nil {
		return nil
	}
	if e.Status == status {
		e.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			e.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !endpointTransitionAllowed(e.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidEndpointStatusTransition, e.Status, status)
	}
	e.Status = status
	e.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		e.LastError = strings.TrimSpace(reason)
	}
	if status == EndpointStatusActive {
		e.LastError = ""
	}
	return nil
}

func endpointTransitionAllowed(current, next EndpointStatus) bool {
	allowed := map[EndpointStatus]map[EndpointStatus]struct{}{
		EndpointStatusActive: {
			EndpointStatusPaused:   {},
			EndpointStatusDisabled: {},
		},
		EndpointStatusPaused: {
			EndpointStatusActive:   {},
			EndpointStatusDisabled: {},
		},
		EndpointStatusDisabled: {},
	}
	_, ok := allowed[current][next]
	return ok
}

type EndpointStats struct {
	EndpointID     string
	WorkspaceID    string
	Received       int64
	Accepted       int64
	Rejected       int64
	Failed         int64
	LastReceivedAt *time.Time
	UpdatedAt      time.Time
}

type AuditStatus string

const (
	AuditStatusOK    AuditStatus = "ok"
	AuditStatusWarn  AuditStatus = "warn"
	AuditStatusError AuditStatus = "error"
)

type AuditEntry struct {
	ID          string
	WorkspaceID string
	Actor       string
	ActorType   string
	Action      string
	ObjectType  string
	ObjectID    string
	Status      AuditStatus
	Metadata    map[string]any
	CreatedAt   time.Time
}

type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID          string
	WorkspaceID string
	PlanID      string
	Status      SubscriptionStatus
	PeriodStart time.Time
	PeriodEnd   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *Subscription) TransitionTo(status SubscriptionStatus, now time.Time) error {
	if s == nil {
		return nil
	}
	if s.Status == status {
		s.UpdatedAt = now
		return nil
	}
	if !subscriptionTransitionAllowed(s.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidSubscriptionStatusTransition, s.Status, status)
	}
	s.Status = status
	s.UpdatedAt = now
	return nil
}

func subscriptionTransitionAllowed(current, next SubscriptionStatus) bool {
	allowed := map[SubscriptionStatus]map[SubscriptionStatus]struct{}{
		SubscriptionStatusTrialing: {
			SubscriptionStatusActive:   {},
			SubscriptionStatusCanceled: {},
		},
		SubscriptionStatusActive: {
			SubscriptionStatusPastDue:  {},
			SubscriptionStatusCanceled: {},
		},
		SubscriptionStatusPastDue: {
			SubscriptionStatusActive:   {},
			SubscriptionStatusCanceled: {},
		},
		SubscriptionStatusCanceled: {},
	}
	_, ok := allowed[current][next]
	return ok
}
