// Package store persists the derived permission profile for the current
// session and answers the page and job gating queries that only need the
// profile, without the full resource-validation cascade.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"dispatchportal/lib/constants"
	"dispatchportal/lib/data"
	"dispatchportal/lib/models"
	"dispatchportal/lib/permissions"
	"dispatchportal/lib/status"

	"github.com/sirupsen/logrus"
)

// PermissionStore wraps a ProfileRepository with the storage-key contract:
// the profile under one well-known key, the raw user snapshot under one of
// two legacy-compatible keys. Every gating method fails closed on missing or
// malformed state and never returns an error into a render path.
type PermissionStore struct {
	Repo   data.ProfileRepository
	Logger *logrus.Logger
}

// NewPermissionStore builds a store over the given repository.
func NewPermissionStore(repo data.ProfileRepository, logger *logrus.Logger) *PermissionStore {
	return &PermissionStore{Repo: repo, Logger: logger}
}

// snapshotKeys lists the raw-user storage keys in lookup order; first match
// wins.
func snapshotKeys() []string {
	return []string{constants.UserSnapshotKey, constants.LegacyUserSnapshotKey}
}

// InitializePermissions reads the raw user snapshot from the first matching
// storage key, normalizes it, computes the permission profile, and persists
// it. With no stored user data it returns nil and leaves every gate failing
// closed.
func (s *PermissionStore) InitializePermissions(ctx context.Context) (*models.PermissionProfile, error) {
	for _, key := range snapshotKeys() {
		blob, err := s.Repo.Get(ctx, key)
		if errors.Is(err, data.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var raw models.RawUser
		if err := json.Unmarshal(blob, &raw); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"operation": "InitializePermissions",
				"key":       key,
			}).WithError(err).Warn("Malformed user snapshot, skipping key")
			continue
		}

		user := models.UserFromRaw(&raw)
		profile := permissions.ComputeProfile(user)
		if err := s.StorePermissions(ctx, profile); err != nil {
			return nil, err
		}

		s.Logger.WithFields(logrus.Fields{
			"operation":    "InitializePermissions",
			"primary_role": profile.PrimaryRole,
			"driver_only":  profile.IsDriverOnly,
		}).Info("Permission profile initialized")
		return profile, nil
	}

	s.Logger.WithField("operation", "InitializePermissions").
		Debug("No stored user snapshot; permissions remain uninitialized")
	return nil, nil
}

// StorePermissions serializes the profile as a single JSON blob under the
// well-known permissions key.
func (s *PermissionStore) StorePermissions(ctx context.Context, profile *models.PermissionProfile) error {
	blob, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.Repo.Put(ctx, constants.PermissionsKey, blob)
}

// GetPermissions returns the persisted profile, or nil when none exists or
// the blob cannot be decoded.
func (s *PermissionStore) GetPermissions(ctx context.Context) *models.PermissionProfile {
	blob, err := s.Repo.Get(ctx, constants.PermissionsKey)
	if err != nil {
		if !errors.Is(err, data.ErrKeyNotFound) {
			s.Logger.WithField("operation", "GetPermissions").
				WithError(err).Warn("Failed to read permission profile")
		}
		return nil
	}

	var profile models.PermissionProfile
	if err := json.Unmarshal(blob, &profile); err != nil {
		s.Logger.WithField("operation", "GetPermissions").
			WithError(err).Warn("Malformed permission profile blob")
		return nil
	}
	return &profile
}

// ClearPermissions removes the persisted profile outright. Safe and
// idempotent when nothing is stored.
func (s *PermissionStore) ClearPermissions(ctx context.Context) error {
	return s.Repo.Delete(ctx, constants.PermissionsKey)
}

// StoreUserSnapshot persists the raw user snapshot under the current key.
func (s *PermissionStore) StoreUserSnapshot(ctx context.Context, raw *models.RawUser) error {
	blob, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return s.Repo.Put(ctx, constants.UserSnapshotKey, blob)
}

// GetUserSnapshot returns the stored raw user snapshot from the first
// matching key, or nil.
func (s *PermissionStore) GetUserSnapshot(ctx context.Context) *models.RawUser {
	for _, key := range snapshotKeys() {
		blob, err := s.Repo.Get(ctx, key)
		if err != nil {
			continue
		}
		var raw models.RawUser
		if err := json.Unmarshal(blob, &raw); err != nil {
			continue
		}
		return &raw
	}
	return nil
}

// ClearUserSnapshot removes both the current and legacy snapshot keys.
func (s *PermissionStore) ClearUserSnapshot(ctx context.Context) error {
	var firstErr error
	for _, key := range snapshotKeys() {
		if err := s.Repo.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CanAccessPage answers the page gate, case-insensitively. Dashboard is
// always reachable, profile or not.
func (s *PermissionStore) CanAccessPage(ctx context.Context, page string) bool {
	if strings.EqualFold(page, constants.PageDashboard) {
		return true
	}

	profile := s.GetPermissions(ctx)
	if profile == nil {
		return false
	}
	for name, allowed := range profile.PageAccess {
		if strings.EqualFold(name, page) {
			return allowed
		}
	}
	return false
}

// CanChangeJobStatus checks the profile's progression table. No profile, no
// transition.
func (s *PermissionStore) CanChangeJobStatus(ctx context.Context, current, target string) bool {
	profile := s.GetPermissions(ctx)
	if profile == nil {
		return false
	}
	return profile.AllowsProgression(current, target)
}

// CanViewJob answers the job visibility gate straight off the persisted
// profile: owners see everything, the explicit ACL wins next, then the
// region/vendor scoping of the role, and driver-only users see only jobs
// carrying their own driver id.
func (s *PermissionStore) CanViewJob(ctx context.Context, job *models.Job) bool {
	if job == nil {
		return false
	}
	profile := s.GetPermissions(ctx)
	if profile == nil {
		return false
	}

	switch profile.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner:
		return true
	}

	if job.VisibleToUser(profile.UserID) {
		return true
	}

	switch profile.PrimaryRole {
	case constants.RoleRegionalManager:
		return job.Region == "" || containsString(profile.Regions, job.Region)
	case constants.RoleServiceProvider:
		return job.VendorID == "" || job.VendorID == profile.VendorID
	}

	if profile.IsDriverOnly {
		return profile.UserID != "" && job.DriverID == profile.UserID
	}

	if job.VendorID != "" && job.VendorID != profile.VendorID {
		return false
	}
	// Region-assigned owner-organization staff are additionally scoped to
	// their regions, matching the manager's cascade.
	if models.OwnerVendor(profile.VendorID) && len(profile.Regions) > 0 {
		if job.Region != "" && !containsString(profile.Regions, job.Region) {
			return false
		}
	}
	return true
}

// CanEditJob layers the terminal-tab capability flags on top of CanViewJob.
// Driver-only users never get the full edit surface; their status moves go
// through the manager's updateStatus gate instead.
func (s *PermissionStore) CanEditJob(ctx context.Context, job *models.Job) bool {
	if !s.CanViewJob(ctx, job) {
		return false
	}
	profile := s.GetPermissions(ctx)
	if profile == nil || profile.IsDriverOnly {
		return false
	}

	switch job.Status {
	case status.Completed:
		return profile.UpdateJobsInCompletedTabs
	case status.Canceled:
		return profile.UpdateJobsInCanceledTabs
	case status.GOA, status.Unsuccessful, status.Expired:
		return profile.ReactivateJobs
	}
	return true
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
