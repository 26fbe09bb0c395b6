package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/personnel_accounting/internal/models"
	"github.com/personnel_accounting/pkg/utils"
)

// Protected resources.
const (
	ResPersonnel = "personnel"
	ResStaffing  = "staffing"
	ResOrders    = "orders"
	ResDocuments = "documents"
	ResReporting = "reporting"
	ResAudit     = "audit"
)

// Actions on resources.
const (
	ActRead    = "read"
	ActWrite   = "write"
	ActReview  = "review"
	ActSign    = "sign"
	ActExecute = "execute"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// defaultPolicies map the user roles to resource permissions.
var defaultPolicies = [][]string{
	{models.RoleAdmin, "*", "*"},

	{models.RoleStaffOfficer, ResPersonnel, ActRead},
	{models.RoleStaffOfficer, ResStaffing, ActRead},
	{models.RoleStaffOfficer, ResOrders, ActRead},
	{models.RoleStaffOfficer, ResDocuments, ActRead},
	{models.RoleStaffOfficer, ResReporting, ActRead},

	{models.RoleCommander, ResDocuments, ActReview},
	{models.RoleCommander, ResOrders, ActSign},

	{models.RolePersonnelOfficer, ResPersonnel, ActWrite},
	{models.RolePersonnelOfficer, ResStaffing, ActWrite},
	{models.RolePersonnelOfficer, ResOrders, ActWrite},
	{models.RolePersonnelOfficer, ResOrders, ActExecute},
	{models.RolePersonnelOfficer, ResDocuments, ActWrite},
}

// commander and personnel_officer inherit every staff_officer permission.
var defaultGroupings = [][]string{
	{models.RoleCommander, models.RoleStaffOfficer},
	{models.RolePersonnelOfficer, models.RoleStaffOfficer},
}

// Authorizer checks role permissions with a casbin enforcer.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
}

// NewAuthorizer builds an enforcer seeded with the default role policies.
func NewAuthorizer() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if _, err := enf.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("authz: load policies: %w", err)
	}
	if _, err := enf.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("authz: load role inheritance: %w", err)
	}
	return &Authorizer{enforcer: enf, logger: logrus.WithField("component", "authz")}, nil
}

// Allowed reports whether role may perform act on obj.
func (a *Authorizer) Allowed(role, obj, act string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ok, err := a.enforcer.Enforce(role, obj, act)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return ok, nil
}

// Require aborts with 403 unless the role set by JWTMiddleware may perform
// act on obj.
func (a *Authorizer) Require(obj, act string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		ok, err := a.Allowed(role, obj, act)
		if err != nil {
			a.logger.WithError(err).Error("authorization check failed")
			utils.RespondInternalServerError(c, "Authorization check failed")
			return
		}
		if !ok {
			a.logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
				"subject": role,
				"object":  obj,
				"action":  act,
				"user-id": c.GetInt64(KeyUserID),
			}).Warn("authz denied request")
			utils.RespondForbiddenError(c)
			return
		}
		c.Next()
	}
}
