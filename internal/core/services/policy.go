package services

import (
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/rs/zerolog/log"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/core/domain"
)

// PolicyAction is an operation checked by the policy
type PolicyAction string

const (
	PolicyJoinQueue        PolicyAction = "queue:join"
	PolicySchedule         PolicyAction = "queue:schedule"
	PolicyViewQueue        PolicyAction = "queue:view"
	PolicyReorder          PolicyAction = "queue:reorder"
	PolicyWalkIn           PolicyAction = "booking:walk-in"
	PolicyArrive           PolicyAction = "booking:arrive"
	PolicyStart            PolicyAction = "booking:start"
	PolicyComplete         PolicyAction = "booking:complete"
	PolicyCancel           PolicyAction = "booking:cancel"
	PolicySkip             PolicyAction = "booking:skip"
	PolicyUndoSkip         PolicyAction = "booking:undo-skip"
	PolicyPriority         PolicyAction = "booking:priority"
	PolicyViewBooking      PolicyAction = "booking:view"
	PolicySalonSettings    PolicyAction = "salon:settings"
	PolicyViewPriorityLogs PolicyAction = "priority:view-logs"
)

// Effective roles, most privileged first
const (
	policyRoleOwner        = "owner"
	policyRoleManager      = "manager"
	policyRoleBarber       = "barber"
	policyRoleBookingOwner = "booking-owner"
	policyRoleCustomer     = "customer"
)

const policyModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.act == "*" || r.act == p.act)
`

var defaultPolicies = [][]string{
	{policyRoleOwner, "*"},
	{policyRoleManager, "*"},
	{policyRoleBarber, string(PolicyViewQueue)},
	{policyRoleBarber, string(PolicyReorder)},
	{policyRoleBarber, string(PolicyWalkIn)},
	{policyRoleBarber, string(PolicyArrive)},
	{policyRoleBarber, string(PolicyStart)},
	{policyRoleBarber, string(PolicyComplete)},
	{policyRoleBarber, string(PolicyCancel)},
	{policyRoleBarber, string(PolicySkip)},
	{policyRoleBarber, string(PolicyUndoSkip)},
	{policyRoleBarber, string(PolicyViewBooking)},
	{policyRoleBookingOwner, string(PolicyCancel)},
	{policyRoleBookingOwner, string(PolicyArrive)},
	{policyRoleBookingOwner, string(PolicyViewBooking)},
	{policyRoleCustomer, string(PolicyJoinQueue)},
	{policyRoleCustomer, string(PolicySchedule)},
}

// PolicyTarget is what the action is applied to. Membership is the actor's staff
// record at the salon, nil when the actor is not staff there.
type PolicyTarget struct {
	Salon      *models.Salon
	Booking    *models.Booking
	Membership *models.Staff
}

// Decision is the outcome of a policy check
type Decision struct {
	Allowed bool
	Role    string
	Code    string
	Reason  string
}

// Err returns the forbidden error for a denied decision, nil otherwise
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return domain.ErrInsufficientPermissions.WithMessage("%s", d.Reason)
}

// Policy evaluates role-based permissions for queue operations
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the enforcer with the built-in role table
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("policy model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("policy enforcer: %w", err)
	}
	for _, rule := range defaultPolicies {
		if _, err := enforcer.AddPolicy(rule[0], rule[1]); err != nil {
			return nil, fmt.Errorf("policy rule %v: %w", rule, err)
		}
	}
	return &Policy{enforcer: enforcer}, nil
}

// Evaluate decides whether actor may perform action on target
func (p *Policy) Evaluate(actor domain.Actor, action PolicyAction, target PolicyTarget) Decision {
	if actor.IsZero() {
		return Decision{Code: domain.ErrInsufficientPermissions.Code, Reason: "authentication required"}
	}
	for _, role := range effectiveRoles(actor, target) {
		allowed, err := p.enforcer.Enforce(role, string(action))
		if err != nil {
			log.Error().Err(err).Str("role", role).Str("action", string(action)).Msg("policy enforce failed")
			continue
		}
		if allowed {
			return Decision{Allowed: true, Role: role}
		}
	}
	return Decision{
		Code:   domain.ErrInsufficientPermissions.Code,
		Reason: fmt.Sprintf("not allowed to %s", action),
	}
}

func effectiveRoles(actor domain.Actor, target PolicyTarget) []string {
	roles := make([]string, 0, 4)
	if target.Salon != nil && actor.Role == domain.RoleOwner && target.Salon.OwnerID == actor.UserID {
		roles = append(roles, policyRoleOwner)
	}
	if m := target.Membership; m != nil && m.IsActive && m.UserID != nil && *m.UserID == actor.UserID &&
		(target.Salon == nil || m.SalonID == target.Salon.ID) {
		switch m.Role {
		case domain.StaffRoleManager:
			roles = append(roles, policyRoleManager)
		case domain.StaffRoleBarber:
			roles = append(roles, policyRoleBarber)
		}
	}
	if b := target.Booking; b != nil && b.UserID != nil && *b.UserID == actor.UserID {
		roles = append(roles, policyRoleBookingOwner)
	}
	return append(roles, policyRoleCustomer)
}
