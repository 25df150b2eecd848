package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"dispatchportal/lib/constants"
	"dispatchportal/lib/data"
	"dispatchportal/lib/models"
	"dispatchportal/lib/status"
	"dispatchportal/lib/store"

	"github.com/sirupsen/logrus"
)

// JobAssignmentResolver decides whether the current user is a job's assigned
// driver. It reconciles server-provided driver fields with the local
// assignment cache that bridges the window where a freshly-dispatched job has
// not yet round-tripped through the server read path.
//
// The resolver is deliberately permissive while identity is still loading --
// a transient extra button beats hiding a legitimate action from a driver on
// a slow network -- and strict once the user is fully loaded. Optimistic
// answers are only ever used to decide what to display, never to authorize a
// mutation.
type JobAssignmentResolver struct {
	Cache  data.AssignmentCacheRepository
	Store  *store.PermissionStore
	Logger *logrus.Logger

	// Now is a clock seam for tests; nil means time.Now.
	Now func() time.Time
}

// NewJobAssignmentResolver builds a resolver over the given cache and store.
func NewJobAssignmentResolver(cache data.AssignmentCacheRepository, st *store.PermissionStore, logger *logrus.Logger) *JobAssignmentResolver {
	return &JobAssignmentResolver{Cache: cache, Store: st, Logger: logger}
}

func (r *JobAssignmentResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// ShouldShowDriverControls gates the driver-facing accept/reject controls.
// Before the user's identity has loaded it falls back to optimistic hints for
// pending-acceptance jobs; afterwards it defers to IsAssignedDriver.
func (r *JobAssignmentResolver) ShouldShowDriverControls(ctx context.Context, user *models.User, job *models.Job) bool {
	if job == nil {
		return false
	}

	if !user.HasIdentity() {
		if job.Status != status.PendingAcceptance {
			return false
		}

		// Any cached assignment for this job means someone on this device was
		// just dispatched to it; render optimistically.
		if record, err := r.Cache.Get(ctx, job.Key()); err == nil && record != nil {
			return true
		}

		// A job that already carries driver fields is at least plausibly ours.
		if job.DriverID != "" || job.Driver != "" {
			return true
		}

		// Last resort: a persisted snapshot hinting this device belongs to a
		// driver or service provider.
		if raw := r.Store.GetUserSnapshot(ctx); raw != nil {
			roles := models.NormalizeSecondaryRoles(raw.SecondaryRoles)
			if roles[constants.SecondaryDriver] || raw.PrimaryRole == constants.RoleServiceProvider {
				return true
			}
		}
		return false
	}

	return r.IsAssignedDriver(ctx, user, job)
}

// IsAssignedDriver performs the strict resolution once identity is known.
// Resolution order: the local cache is authoritative in both directions, then
// exact driver-id match, then (outside pending acceptance) a fuzzy
// display-name match. Pending-acceptance jobs require either an id match or a
// name match backed by a driver secondary role or SP primary role.
func (r *JobAssignmentResolver) IsAssignedDriver(ctx context.Context, user *models.User, job *models.Job) bool {
	if user == nil || job == nil {
		return false
	}

	record, err := r.Cache.Get(ctx, job.Key())
	if err != nil && !errors.Is(err, data.ErrKeyNotFound) {
		r.Logger.WithFields(logrus.Fields{
			"operation": "IsAssignedDriver",
			"job_id":    job.Key(),
		}).WithError(err).Warn("Assignment cache read failed; continuing without it")
		record = nil
	}
	if record != nil {
		// The cache is authoritative for denial too: a cached assignee that
		// is not this user hides the controls even if a name would match.
		return user.MatchesID(record.UserID)
	}

	if job.DriverID != "" && user.MatchesID(job.DriverID) {
		r.remember(ctx, job, user)
		return true
	}

	nameMatch := r.nameMatches(user, job.Driver)

	if job.Status == status.PendingAcceptance {
		// Once identity is known, a bare name match is too weak to offer
		// accept/reject; require a driver or service-provider role behind it.
		if nameMatch && (user.HasSecondaryRole(constants.SecondaryDriver) ||
			user.PrimaryRole == constants.RoleServiceProvider) {
			r.remember(ctx, job, user)
			return true
		}
		return false
	}

	if nameMatch {
		r.remember(ctx, job, user)
		return true
	}
	return false
}

// nameMatches checks the user's display names (full name, username, email
// local part) as case-insensitive substrings of the job's driver display
// name.
func (r *JobAssignmentResolver) nameMatches(user *models.User, driver string) bool {
	if driver == "" {
		return false
	}
	haystack := strings.ToLower(driver)
	for _, candidate := range user.DisplayNames() {
		if candidate != "" && strings.Contains(haystack, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}

// remember persists a confirmed assignment so later renders resolve from the
// cache even if the server fields regress. Write failures are logged and
// swallowed; the cache is an aid, not a dependency.
func (r *JobAssignmentResolver) remember(ctx context.Context, job *models.Job, user *models.User) {
	record := &data.AssignmentRecord{UserID: user.ID, RecordedAt: r.now()}
	if record.UserID == "" {
		record.UserID = user.MongoID
	}
	if err := r.Cache.Put(ctx, job.Key(), record); err != nil {
		r.Logger.WithFields(logrus.Fields{
			"operation": "remember",
			"job_id":    job.Key(),
		}).WithError(err).Warn("Failed to persist assignment record")
	}
}
