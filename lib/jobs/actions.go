// Package jobs implements the state-changing job actions: status updates
// guarded by the role transition tables, the GOA and Unsuccessful approval
// side-channels, and the convenience actions (cancel, delete, duplicate,
// reactivate). Every action consults the permission gates before mutating
// and returns a user-visible message when it refuses.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dispatchportal/lib/auth"
	"dispatchportal/lib/models"
	"dispatchportal/lib/status"
	"dispatchportal/lib/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ActionError carries the message shown to the user when an action is
// rejected. Rejection is an expected answer, not an internal failure.
type ActionError struct {
	Message string
}

func (e *ActionError) Error() string { return e.Message }

func denied(format string, args ...interface{}) error {
	return &ActionError{Message: fmt.Sprintf(format, args...)}
}

// ActionService wires the permission manager and store into the job action
// handlers. Mutations are applied to the job object in place; persisting the
// result is the caller's concern.
type ActionService struct {
	Manager *auth.PermissionManager
	Store   *store.PermissionStore
	Audit   AuditRecorder
	Logger  *logrus.Logger

	// Now is a clock seam for tests; nil means time.Now.
	Now func() time.Time
}

// NewActionService builds an action service. A nil audit recorder disables
// the trail.
func NewActionService(manager *auth.PermissionManager, st *store.PermissionStore, audit AuditRecorder, logger *logrus.Logger) *ActionService {
	return &ActionService{Manager: manager, Store: st, Audit: audit, Logger: logger}
}

func (s *ActionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ActionService) record(entry ApprovalAuditEntry) {
	if s.Audit != nil {
		s.Audit.Record(entry)
	}
}

// UpdateStatus moves a job to target if every gate passes: the profile's
// progression table, the forward-only dialog filter for driver-restricted
// users, and the manager's resource check.
func (s *ActionService) UpdateStatus(ctx context.Context, user *models.User, job *models.Job, target string) error {
	if job == nil {
		return denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil {
		return denied("You do not have permission to update this job")
	}

	if !profile.AllowsProgression(job.Status, target) {
		allowed := profile.AllowedJobProgressions[job.Status]
		if len(allowed) == 0 {
			return denied("You cannot change a job from %q", job.Status)
		}
		return denied("You can only change from %q to %q", job.Status, strings.Join(allowed, ", "))
	}

	if profile.IsDriverOnly {
		// The driver dialog never offers a regressive status; both the role
		// table and this priority check must pass.
		if status.Priority(target) < status.Priority(job.Status) {
			return denied("You can only move a job forward from %q", job.Status)
		}
	}

	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionUpdateStatus) {
		return denied("You do not have permission to update this job")
	}

	s.Logger.WithFields(logrus.Fields{
		"operation": "UpdateStatus",
		"job_id":    job.Key(),
		"from":      job.Status,
		"to":        target,
	}).Info("Job status updated")

	job.Status = target
	return nil
}

// RequestGOA puts a job into the GOA approval side-channel. Only allowed
// from On Site, with a non-empty reason, by a user whose profile grants the
// request capability and who can reach the job.
func (s *ActionService) RequestGOA(ctx context.Context, user *models.User, job *models.Job, reason string) error {
	return s.requestApproval(ctx, user, job, reason, approvalParams{
		kind:       "GOA",
		capability: func(p *models.PermissionProfile) bool { return p.CanRequestGOA },
		apply: func(j *models.Job, trimmed string) {
			j.ApprovalStatus = models.ApprovalPending
			j.GoaReason = trimmed
		},
		auditAction: AuditGoaRequested,
	})
}

// ApproveGOA finalizes a pending GOA request; the job's status becomes GOA.
func (s *ActionService) ApproveGOA(ctx context.Context, user *models.User, job *models.Job) error {
	return s.resolveApproval(ctx, user, job, approvalResolution{
		kind:        "GOA",
		capability:  func(p *models.PermissionProfile) bool { return p.CanApproveGOA },
		pending:     func(j *models.Job) bool { return j.ApprovalStatus == models.ApprovalPending },
		approve:     true,
		finalStatus: status.GOA,
		settle:      func(j *models.Job) { j.ApprovalStatus = models.ApprovalApproved },
		auditAction: AuditGoaApproved,
	})
}

// DenyGOA rejects a pending GOA request. The job reverts to the active
// status it held before the request and remains actionable; a denied request
// is never auto-recycled.
func (s *ActionService) DenyGOA(ctx context.Context, user *models.User, job *models.Job) error {
	return s.resolveApproval(ctx, user, job, approvalResolution{
		kind:        "GOA",
		capability:  func(p *models.PermissionProfile) bool { return p.CanApproveGOA },
		pending:     func(j *models.Job) bool { return j.ApprovalStatus == models.ApprovalPending },
		approve:     false,
		settle:      func(j *models.Job) { j.ApprovalStatus = models.ApprovalDenied },
		auditAction: AuditGoaDenied,
	})
}

// RequestUnsuccessful is the Unsuccessful twin of RequestGOA.
func (s *ActionService) RequestUnsuccessful(ctx context.Context, user *models.User, job *models.Job, reason string) error {
	return s.requestApproval(ctx, user, job, reason, approvalParams{
		kind:       "Unsuccessful",
		capability: func(p *models.PermissionProfile) bool { return p.CanRequestUnsuccessful },
		apply: func(j *models.Job, trimmed string) {
			j.ApprovalStatusUnsuccessful = models.ApprovalPending
			j.UnsuccessfulReason = trimmed
		},
		auditAction: AuditUnsuccessfulRequested,
	})
}

// ApproveUnsuccessful finalizes a pending Unsuccessful request.
func (s *ActionService) ApproveUnsuccessful(ctx context.Context, user *models.User, job *models.Job) error {
	return s.resolveApproval(ctx, user, job, approvalResolution{
		kind:        "Unsuccessful",
		capability:  func(p *models.PermissionProfile) bool { return p.CanApproveUnsuccessful },
		pending:     func(j *models.Job) bool { return j.ApprovalStatusUnsuccessful == models.ApprovalPending },
		approve:     true,
		finalStatus: status.Unsuccessful,
		settle:      func(j *models.Job) { j.ApprovalStatusUnsuccessful = models.ApprovalApproved },
		auditAction: AuditUnsuccessfulApproved,
	})
}

// DenyUnsuccessful rejects a pending Unsuccessful request and reverts the
// job to its prior active status.
func (s *ActionService) DenyUnsuccessful(ctx context.Context, user *models.User, job *models.Job) error {
	return s.resolveApproval(ctx, user, job, approvalResolution{
		kind:        "Unsuccessful",
		capability:  func(p *models.PermissionProfile) bool { return p.CanApproveUnsuccessful },
		pending:     func(j *models.Job) bool { return j.ApprovalStatusUnsuccessful == models.ApprovalPending },
		approve:     false,
		settle:      func(j *models.Job) { j.ApprovalStatusUnsuccessful = models.ApprovalDenied },
		auditAction: AuditUnsuccessfulDenied,
	})
}

type approvalParams struct {
	kind        string
	capability  func(*models.PermissionProfile) bool
	apply       func(*models.Job, string)
	auditAction string
}

func (s *ActionService) requestApproval(ctx context.Context, user *models.User, job *models.Job, reason string, params approvalParams) error {
	if job == nil {
		return denied("No job selected")
	}

	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return denied("A reason is required to mark this job as %s", params.kind)
	}
	if job.Status != status.OnSite {
		return denied("%s can only be requested when the job is %q", params.kind, status.OnSite)
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !params.capability(profile) {
		return denied("You do not have permission to request %s", params.kind)
	}
	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionUpdate) {
		return denied("You do not have permission to update this job")
	}

	before := job.Status
	job.PreviousStatus = job.Status
	job.Status = status.AwaitingApproval
	params.apply(job, trimmed)

	entry := newAuditEntry(job.Key(), params.auditAction, user.ID, s.now())
	entry.StatusBefore = before
	entry.StatusAfter = job.Status
	entry.Reason = trimmed
	s.record(entry)

	s.Logger.WithFields(logrus.Fields{
		"operation": "requestApproval",
		"kind":      params.kind,
		"job_id":    job.Key(),
	}).Info("Approval requested")
	return nil
}

type approvalResolution struct {
	kind        string
	capability  func(*models.PermissionProfile) bool
	pending     func(*models.Job) bool
	approve     bool
	finalStatus string
	settle      func(*models.Job)
	auditAction string
}

func (s *ActionService) resolveApproval(ctx context.Context, user *models.User, job *models.Job, res approvalResolution) error {
	if job == nil {
		return denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !res.capability(profile) {
		return denied("You do not have permission to approve %s requests", res.kind)
	}
	// Approval additionally requires resource access to the job: an explicit
	// visibleTo grant, or the vendor/region reach of the role.
	if !(user != nil && job.VisibleToUser(user.ID)) &&
		!s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionApprove) {
		return denied("You do not have access to this job")
	}
	if !res.pending(job) {
		return denied("No pending %s request on this job", res.kind)
	}

	before := job.Status
	res.settle(job)
	if res.approve {
		job.Status = res.finalStatus
	} else {
		// Denial reverts the job to the active status it was frozen at; a
		// missing snapshot falls back to On Site, where requests originate.
		if job.PreviousStatus != "" {
			job.Status = job.PreviousStatus
		} else {
			job.Status = status.OnSite
		}
	}
	job.PreviousStatus = ""

	entry := newAuditEntry(job.Key(), res.auditAction, user.ID, s.now())
	entry.StatusBefore = before
	entry.StatusAfter = job.Status
	s.record(entry)

	s.Logger.WithFields(logrus.Fields{
		"operation": "resolveApproval",
		"kind":      res.kind,
		"approved":  res.approve,
		"job_id":    job.Key(),
	}).Info("Approval resolved")
	return nil
}

// Cancel moves a job to Canceled for any non-driver-only user who can reach
// it.
func (s *ActionService) Cancel(ctx context.Context, user *models.User, job *models.Job) error {
	if job == nil {
		return denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !profile.CancelJobs {
		return denied("You do not have permission to cancel jobs")
	}
	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionUpdate) {
		return denied("You do not have permission to update this job")
	}
	if status.IsTerminal(job.Status) {
		return denied("A %q job cannot be canceled", job.Status)
	}

	before := job.Status
	job.Status = status.Canceled

	entry := newAuditEntry(job.Key(), AuditJobCanceled, user.ID, s.now())
	entry.StatusBefore = before
	entry.StatusAfter = job.Status
	s.record(entry)
	return nil
}

// Delete authorizes removal of a job. The actual removal is performed by the
// API layer; this gate decides and audits.
func (s *ActionService) Delete(ctx context.Context, user *models.User, job *models.Job) error {
	if job == nil {
		return denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !profile.DeleteJobs {
		return denied("You do not have permission to delete jobs")
	}
	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionDelete) {
		return denied("You do not have permission to delete this job")
	}

	entry := newAuditEntry(job.Key(), AuditJobDeleted, user.ID, s.now())
	entry.StatusBefore = job.Status
	s.record(entry)
	return nil
}

// Duplicate returns a fresh Pending copy of a job with a new id and cleared
// driver and approval state.
func (s *ActionService) Duplicate(ctx context.Context, user *models.User, job *models.Job) (*models.Job, error) {
	if job == nil {
		return nil, denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !profile.DuplicateJobs {
		return nil, denied("You do not have permission to duplicate jobs")
	}
	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionView) {
		return nil, denied("You do not have access to this job")
	}

	duplicate := *job
	duplicate.ID = uuid.NewString()
	duplicate.MongoID = ""
	duplicate.Status = status.Pending
	duplicate.DriverID = ""
	duplicate.Driver = ""
	duplicate.ApprovalStatus = ""
	duplicate.GoaReason = ""
	duplicate.ApprovalStatusUnsuccessful = ""
	duplicate.UnsuccessfulReason = ""
	duplicate.PreviousStatus = ""
	duplicate.AutoRejectAt = nil
	duplicate.CreatedBy = user.ID
	return &duplicate, nil
}

// Reactivate returns a terminal job to Pending so it can be re-dispatched.
func (s *ActionService) Reactivate(ctx context.Context, user *models.User, job *models.Job) error {
	if job == nil {
		return denied("No job selected")
	}

	profile := s.Store.GetPermissions(ctx)
	if profile == nil || !profile.ReactivateJobs {
		return denied("You do not have permission to reactivate jobs")
	}
	if !status.IsTerminal(job.Status) {
		return denied("Only completed, canceled, or closed jobs can be reactivated")
	}
	if !s.Manager.ValidateAccess(ctx, user, &models.JobResource{Job: job}, models.ActionUpdate) {
		return denied("You do not have permission to update this job")
	}

	before := job.Status
	job.Status = status.Pending
	job.ApprovalStatus = ""
	job.ApprovalStatusUnsuccessful = ""
	job.GoaReason = ""
	job.UnsuccessfulReason = ""
	job.PreviousStatus = ""

	entry := newAuditEntry(job.Key(), AuditJobReactivated, user.ID, s.now())
	entry.StatusBefore = before
	entry.StatusAfter = job.Status
	s.record(entry)
	return nil
}

// PendingQueue filters a driver's pending-acceptance queue, excluding jobs
// past their auto-reject deadline. Expiry here is display-only; the
// persisted status is flipped by an external process.
func PendingQueue(jobList []*models.Job, now time.Time) []*models.Job {
	var out []*models.Job
	for _, job := range jobList {
		if job == nil || job.Status != status.PendingAcceptance {
			continue
		}
		if status.IsExpired(job, now) {
			continue
		}
		out = append(out, job)
	}
	return out
}
