// Package auth implements the resource-scoped authorization facade for the
// dispatch portal: the PermissionManager cascade over the cached permission
// profile, and the driver-assignment resolver it delegates job checks to.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"dispatchportal/lib/constants"
	"dispatchportal/lib/models"
	"dispatchportal/lib/store"

	"github.com/sirupsen/logrus"
)

// PermissionManager combines the cached permission profile with
// resource-specific ownership checks. It is an explicitly constructed,
// dependency-injected service: build one per session at startup and thread
// it through, rather than reaching for a package singleton.
//
// Every decision fails closed: missing profile, malformed resource, or any
// internal error converts to a deny, logged for diagnostics, never an error
// or panic into the caller.
type PermissionManager struct {
	Store    *store.PermissionStore
	Resolver *JobAssignmentResolver
	Logger   *logrus.Logger

	// TTL bounds how long a cached decision stays valid. Zero means
	// constants.DefaultCacheTTL.
	TTL time.Duration

	// Now is a clock seam for tests; nil means time.Now.
	Now func() time.Time

	mu    sync.Mutex
	cache map[string]decision
}

type decision struct {
	allowed   bool
	expiresAt time.Time
}

// NewPermissionManager builds a manager over the given store and resolver.
func NewPermissionManager(st *store.PermissionStore, resolver *JobAssignmentResolver, logger *logrus.Logger) *PermissionManager {
	return &PermissionManager{
		Store:    st,
		Resolver: resolver,
		Logger:   logger,
		cache:    make(map[string]decision),
	}
}

func (m *PermissionManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *PermissionManager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return constants.DefaultCacheTTL
}

// ValidateAccess answers whether user may perform action on resource. The
// decision is cached per (user, resource, action) for the manager's TTL; on
// expiry the next call transparently re-evaluates from the persisted state.
func (m *PermissionManager) ValidateAccess(ctx context.Context, user *models.User, resource models.Resource, action string) (allowed bool) {
	// A gating function must never crash a render path; any internal panic
	// degrades to a logged deny.
	defer func() {
		if r := recover(); r != nil {
			m.Logger.WithFields(logrus.Fields{
				"operation": "ValidateAccess",
				"panic":     r,
			}).Error("Authorization check panicked; denying")
			allowed = false
		}
	}()

	if user == nil || resource == nil || action == "" {
		m.Logger.WithField("operation", "ValidateAccess").
			Debug("Missing subject, resource, or action; denying")
		return false
	}

	key := user.ID + "|" + resource.ResourceType() + "|" + resource.ResourceKey() + "|" + action

	m.mu.Lock()
	if m.cache != nil {
		if d, ok := m.cache[key]; ok && m.now().Before(d.expiresAt) {
			m.mu.Unlock()
			return d.allowed
		}
	}
	m.mu.Unlock()

	// A missing profile denies without caching: the very next check after
	// login must see the freshly initialized profile, not a stale deny.
	profile := m.Store.GetPermissions(ctx)
	if profile == nil {
		m.Logger.WithFields(logrus.Fields{
			"operation": "ValidateAccess",
			"user_id":   user.ID,
		}).Warn("No permission profile available; denying")
		return false
	}

	allowed = m.evaluate(ctx, user, resource, action)

	m.mu.Lock()
	if m.cache == nil {
		m.cache = make(map[string]decision)
	}
	m.cache[key] = decision{allowed: allowed, expiresAt: m.now().Add(m.ttl())}
	m.mu.Unlock()

	if !allowed {
		m.Logger.WithFields(logrus.Fields{
			"operation":     "ValidateAccess",
			"user_id":       user.ID,
			"primary_role":  user.PrimaryRole,
			"resource_type": resource.ResourceType(),
			"action":        action,
		}).Debug("Access denied")
	}
	return allowed
}

// ClearCache drops every cached decision. Idempotent and safe before any
// decision has been cached (logout-before-login).
func (m *PermissionManager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]decision)
}

// evaluate runs the role cascade; the first matching rule decides.
func (m *PermissionManager) evaluate(ctx context.Context, user *models.User, resource models.Resource, action string) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner:
		// Owners are granted unconditionally.
		return true
	case constants.RoleRegionalManager:
		return m.evaluateRegionalManager(user, resource, action)
	case constants.RoleServiceProvider:
		return m.evaluateServiceProvider(user, resource, action)
	case constants.RoleNone:
		return m.evaluateSecondaryRoles(ctx, user, resource, action)
	}

	return false
}

// evaluateRegionalManager requires region compatibility, then applies the RM
// action table: everything except deleting system settings.
func (m *PermissionManager) evaluateRegionalManager(user *models.User, resource models.Resource, action string) bool {
	if region := resource.ResourceRegion(); region != "" && !user.InRegion(region) {
		return false
	}
	if resource.ResourceType() == models.ResourceTypeSystemSetting && action == models.ActionDelete {
		return false
	}
	return true
}

// evaluateServiceProvider requires a vendor match, then applies the SP action
// table: no region resources, and no deleting resources the provider did not
// create.
func (m *PermissionManager) evaluateServiceProvider(user *models.User, resource models.Resource, action string) bool {
	if resource.ResourceType() == models.ResourceTypeRegion {
		return false
	}
	if vendor := resource.ResourceVendorID(); vendor != "" && vendor != user.VendorID {
		return false
	}
	if action == models.ActionDelete {
		if creator := resource.CreatorID(); creator != "" && !user.MatchesID(creator) {
			return false
		}
	}
	return true
}

// evaluateSecondaryRoles covers users without a primary role. Driver-only
// users get the narrow driver rule; everyone else is vendor-scoped (plus
// region-scoped for region-assigned owner-organization staff) and then
// dispatched by the highest-priority secondary role present:
// admin > dispatcher > answeringService > driver.
func (m *PermissionManager) evaluateSecondaryRoles(ctx context.Context, user *models.User, resource models.Resource, action string) bool {
	if user.IsDriverOnly() {
		return m.evaluateDriver(ctx, user, resource, action)
	}

	if vendor := resource.ResourceVendorID(); vendor != "" && vendor != user.VendorID {
		return false
	}
	if user.OwnerOrganization() && len(user.Regions) > 0 {
		if region := resource.ResourceRegion(); region != "" && !user.InRegion(region) {
			return false
		}
	}

	switch {
	case user.HasSecondaryRole(constants.SecondaryAdmin):
		return !strings.HasPrefix(action, models.SystemActionPrefix)
	case user.HasSecondaryRole(constants.SecondaryDispatcher):
		return resource.ResourceType() == models.ResourceTypeJob && action != models.ActionDelete
	case user.HasSecondaryRole(constants.SecondaryAnsweringService):
		return action == models.ActionView || action == models.ActionCreate
	case user.HasSecondaryRole(constants.SecondaryDriver):
		return m.evaluateDriver(ctx, user, resource, action)
	}

	return false
}

// evaluateDriver is the driver access rule: job resources only, and only
// viewing or moving the status of the job the driver is assigned to. The
// forward-only transition constraint is checked separately by the status
// table.
func (m *PermissionManager) evaluateDriver(ctx context.Context, user *models.User, resource models.Resource, action string) bool {
	jobResource, ok := resource.(*models.JobResource)
	if !ok || jobResource.Job == nil {
		return false
	}

	switch action {
	case models.ActionView, models.ActionUpdateStatus:
		return m.Resolver.IsAssignedDriver(ctx, user, jobResource.Job)
	}
	return false
}
