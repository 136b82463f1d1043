package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectOrganization = "organization"
	ObjectUnit         = "unit"
	ObjectBill         = "bill"
	ObjectExpense      = "expense"
	ObjectIncome       = "income"
	ObjectUpload       = "upload"
	ObjectUser         = "user"
)

const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ActionBillGenerate     = "bill.generate"
	ActionBillUpdateStatus = "bill.update_status"
	ActionBillDues         = "bill.dues"
	ActionBillReceipt      = "bill.receipt"

	ActionOrganizationSettings = "organization.settings"
	ActionUserOnboard          = "user.onboard"
)

// GlobalDomain scopes policies that are not tied to a single society.
// The super-admin operates here.
const GlobalDomain = "org:*"

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, user *authdomain.User, orgID string, object string, action string) error {
	_ = ctx
	if user == nil || user.ID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", user.ID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(user.Role))

	// Owners act in the global domain. Admins and residents act in the
	// domain of the society they belong to.
	dom := GlobalDomain
	if user.Role != authdomain.RoleOwner {
		orgID = strings.TrimSpace(orgID)
		if orgID == "" {
			return ErrInvalidOrganization
		}
		if user.OrgID == nil || user.OrgID.String() != orgID {
			s.log.Warn("organization mismatch",
				zap.String("subject", subject),
				zap.String("org_id", orgID),
			)
			return ErrForbidden
		}
		dom = fmt.Sprintf("org:%s", orgID)
	}

	if err := s.ensureGrouping(subject, roleName, dom); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, dom, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, dom string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", dom)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, dom)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, dom)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Residents see their own society's data.
		{"role:resident", ObjectBill, ActionView},
		{"role:resident", ObjectBill, ActionBillDues},
		{"role:resident", ObjectBill, ActionBillReceipt},
		{"role:resident", ObjectUnit, ActionView},
		{"role:resident", ObjectOrganization, ActionView},

		// Admins run a single society.
		{"role:admin", ObjectOrganization, ActionView},
		{"role:admin", ObjectOrganization, ActionUpdate},
		{"role:admin", ObjectOrganization, ActionOrganizationSettings},
		{"role:admin", ObjectUnit, ActionView},
		{"role:admin", ObjectUnit, ActionCreate},
		{"role:admin", ObjectUnit, ActionUpdate},
		{"role:admin", ObjectUnit, ActionDelete},
		{"role:admin", ObjectBill, ActionView},
		{"role:admin", ObjectBill, ActionBillGenerate},
		{"role:admin", ObjectBill, ActionBillUpdateStatus},
		{"role:admin", ObjectBill, ActionBillDues},
		{"role:admin", ObjectBill, ActionBillReceipt},
		{"role:admin", ObjectExpense, ActionView},
		{"role:admin", ObjectExpense, ActionCreate},
		{"role:admin", ObjectExpense, ActionUpdate},
		{"role:admin", ObjectExpense, ActionDelete},
		{"role:admin", ObjectIncome, ActionView},
		{"role:admin", ObjectIncome, ActionCreate},
		{"role:admin", ObjectIncome, ActionUpdate},
		{"role:admin", ObjectIncome, ActionDelete},
		{"role:admin", ObjectUpload, ActionCreate},
		{"role:admin", ObjectUser, ActionView},
		{"role:admin", ObjectUser, ActionUserOnboard},

		// The owner onboards societies and their admins.
		{"role:owner", ObjectOrganization, ActionView},
		{"role:owner", ObjectOrganization, ActionCreate},
		{"role:owner", ObjectOrganization, ActionUpdate},
		{"role:owner", ObjectOrganization, ActionDelete},
		{"role:owner", ObjectOrganization, ActionOrganizationSettings},
		{"role:owner", ObjectUnit, ActionView},
		{"role:owner", ObjectUnit, ActionCreate},
		{"role:owner", ObjectUnit, ActionUpdate},
		{"role:owner", ObjectUnit, ActionDelete},
		{"role:owner", ObjectBill, ActionView},
		{"role:owner", ObjectBill, ActionBillGenerate},
		{"role:owner", ObjectBill, ActionBillUpdateStatus},
		{"role:owner", ObjectBill, ActionBillDues},
		{"role:owner", ObjectBill, ActionBillReceipt},
		{"role:owner", ObjectExpense, ActionView},
		{"role:owner", ObjectExpense, ActionCreate},
		{"role:owner", ObjectExpense, ActionUpdate},
		{"role:owner", ObjectExpense, ActionDelete},
		{"role:owner", ObjectIncome, ActionView},
		{"role:owner", ObjectIncome, ActionCreate},
		{"role:owner", ObjectIncome, ActionUpdate},
		{"role:owner", ObjectIncome, ActionDelete},
		{"role:owner", ObjectUpload, ActionCreate},
		{"role:owner", ObjectUser, ActionView},
		{"role:owner", ObjectUser, ActionUserOnboard},
	}

	for _, p := range policies {
		has, err := enforcer.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return err
		}
	}
	return nil
}
