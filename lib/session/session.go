// Package session owns the explicit session context: the raw user snapshot,
// the normalized subject, and the derived permission profile, together with
// the login/logout choreography around the permission store and manager.
package session

import (
	"context"
	"fmt"

	"dispatchportal/lib/auth"
	"dispatchportal/lib/models"
	"dispatchportal/lib/store"

	"github.com/sirupsen/logrus"
)

// SessionContext carries the current session's state by reference to the
// functions that need it, replacing global storage-backed lookups.
type SessionContext struct {
	Raw     *models.RawUser
	User    *models.User
	Profile *models.PermissionProfile
}

// Service wires the store and manager into session lifecycle operations.
type Service struct {
	Store   *store.PermissionStore
	Manager *auth.PermissionManager
	Logger  *logrus.Logger
}

// NewService builds a session service.
func NewService(st *store.PermissionStore, manager *auth.PermissionManager, logger *logrus.Logger) *Service {
	return &Service{Store: st, Manager: manager, Logger: logger}
}

// Login persists the raw snapshot, computes and stores the permission
// profile, and returns the populated session context.
func (s *Service) Login(ctx context.Context, raw *models.RawUser) (*SessionContext, error) {
	if raw == nil {
		return nil, fmt.Errorf("no user snapshot to log in with")
	}

	if err := s.Store.StoreUserSnapshot(ctx, raw); err != nil {
		return nil, fmt.Errorf("failed to persist user snapshot: %w", err)
	}

	profile, err := s.Store.InitializePermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize permissions: %w", err)
	}

	sess := &SessionContext{
		Raw:     raw,
		User:    models.UserFromRaw(raw),
		Profile: profile,
	}

	s.Logger.WithFields(logrus.Fields{
		"operation":    "Login",
		"user_id":      sess.User.ID,
		"primary_role": sess.User.PrimaryRole,
	}).Info("Session established")
	return sess, nil
}

// Logout synchronously clears the in-process decision cache and then the
// persisted profile and snapshot keys, in that order, so a permission check
// racing the logout observes at worst a missing profile and fails closed.
// Idempotent: logging out an already-empty session is a no-op.
func (s *Service) Logout(ctx context.Context, sess *SessionContext) error {
	s.Manager.ClearCache()

	if err := s.Store.ClearPermissions(ctx); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}
	if err := s.Store.ClearUserSnapshot(ctx); err != nil {
		return fmt.Errorf("failed to clear user snapshot: %w", err)
	}

	if sess != nil {
		sess.Raw = nil
		sess.User = nil
		sess.Profile = nil
	}

	s.Logger.WithField("operation", "Logout").Info("Session cleared")
	return nil
}
