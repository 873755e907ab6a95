package requests

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/playvault/game-request-api/internal/models"
	"github.com/playvault/game-request-api/internal/utils"
)

// Notifier pushes request lifecycle events to an external channel.
// Notification failure never fails the operation that triggered it.
type Notifier interface {
	NotifyNewRequest(ctx context.Context, r models.GameRequest) error
	NotifyStatusChange(ctx context.Context, r models.GameRequest, previous models.RequestStatus) error
}

// Service enforces the request lifecycle rules on top of the store:
// quotas, duplicate detection, auto-approval and audit trail.
type Service struct {
	store    *Store
	notifier Notifier
}

func NewService(store *Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Create opens a new request for the requester, subject to their quota
// and duplicate checks. The assigned public id is returned on the request.
func (s *Service) Create(ctx context.Context, requester string, payload models.GameRequestCreate) (*models.GameRequest, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	if payload.CatalogID > 0 {
		existing, err := s.store.RequestForGame(ctx, requester, payload.CatalogID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.Status != models.StatusRejected {
			return nil, ErrDuplicate
		}
	} else {
		// Free-text requests have no catalog id to key on; match on the
		// normalized title instead.
		mine, err := s.store.List(ctx, "", requester)
		if err != nil {
			return nil, err
		}
		for _, r := range mine {
			if r.Status != models.StatusRejected && utils.SameGameName(r.GameName, payload.GameName) {
				return nil, ErrDuplicate
			}
		}
	}

	active, err := s.store.CountActive(ctx, requester)
	if err != nil {
		return nil, err
	}
	if settings.MaxRequestsPerUser > 0 && active >= settings.MaxRequestsPerUser {
		return nil, ErrLimitReached
	}

	status := models.StatusPending
	if !settings.RequireAdminApproval {
		status = models.StatusApproved
	}

	now := time.Now().UTC()
	request := &models.GameRequest{
		PublicID:  uuid.NewString(),
		GameName:  payload.GameName,
		CatalogID: payload.CatalogID,
		CoverURL:  payload.CoverURL,
		Genres:    payload.Genres,
		Comment:   payload.Comment,
		Status:    status,
		Requester: requester,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, request); err != nil {
		return nil, err
	}

	s.audit(ctx, "request.create", requester, fmt.Sprintf("%s (%s)", request.GameName, request.PublicID))

	if settings.TelegramEnabled && settings.NotifyOnNewRequest && s.notifier != nil {
		if err := s.notifier.NotifyNewRequest(ctx, *request); err != nil {
			log.Printf("[NOTIFY] new request %s: %v", request.PublicID, err)
		}
	}
	return request, nil
}

// Get returns one request by public id.
func (s *Service) Get(ctx context.Context, publicID string) (*models.GameRequest, error) {
	return s.store.GetByPublicID(ctx, publicID)
}

// List returns requests, optionally filtered by status and requester.
func (s *Service) List(ctx context.Context, status models.RequestStatus, requester string) ([]models.GameRequest, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.store.List(ctx, status, requester)
}

// Update applies an admin-side status or notes change and notifies the
// requester's channel when the status moved.
func (s *Service) Update(ctx context.Context, publicID, actor string, upd models.GameRequestUpdate) (*models.GameRequest, error) {
	request, err := s.store.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}

	previous := request.Status
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		request.Status = *upd.Status
	}
	if upd.AdminNotes != nil {
		request.AdminNotes = *upd.AdminNotes
	}
	request.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, request); err != nil {
		return nil, err
	}

	s.audit(ctx, "request.update", actor,
		fmt.Sprintf("%s: %s -> %s", request.PublicID, previous, request.Status))

	if request.Status != previous {
		settings, err := s.store.Settings(ctx)
		if err == nil && settings.TelegramEnabled && settings.NotifyOnStatusChange && s.notifier != nil {
			if err := s.notifier.NotifyStatusChange(ctx, *request, previous); err != nil {
				log.Printf("[NOTIFY] status change %s: %v", request.PublicID, err)
			}
		}
	}
	return request, nil
}

// Delete removes a request. Admins can delete anything; a requester can
// delete only their own pending request, and only when user deletion is
// enabled.
func (s *Service) Delete(ctx context.Context, publicID, actor string, isAdmin bool) error {
	request, err := s.store.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}

	if !isAdmin {
		settings, err := s.store.Settings(ctx)
		if err != nil {
			return err
		}
		if !settings.AllowUserRequestDeletion ||
			request.Requester != actor ||
			request.Status != models.StatusPending {
			return ErrForbidden
		}
	}

	if err := s.store.Delete(ctx, request.ID); err != nil {
		return err
	}
	s.audit(ctx, "request.delete", actor, request.PublicID)
	return nil
}

// GameStatus summarizes how a catalog game relates to existing requests
// from the requester's point of view.
func (s *Service) GameStatus(ctx context.Context, requester string, catalogID int64) (models.RequestGameStatus, error) {
	var status models.RequestGameStatus

	completed, err := s.store.IsGameCompleted(ctx, catalogID)
	if err != nil {
		return status, err
	}
	status.IsAvailable = completed

	pending, err := s.store.HasPendingForGame(ctx, catalogID)
	if err != nil {
		return status, err
	}
	status.HasPendingRequest = pending

	if requester != "" {
		own, err := s.store.RequestForGame(ctx, requester, catalogID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return status, err
		}
		if own != nil {
			status.UserHasRequest = true
			status.UserRequestStatus = own.Status
		}
	}

	status.CanRequest = !status.IsAvailable &&
		(!status.UserHasRequest || status.UserRequestStatus == models.StatusRejected)
	return status, nil
}

// Stats returns the per-status request counts for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (map[models.RequestStatus]int, error) {
	return s.store.StatusCounts(ctx)
}

// Settings returns the current system settings.
func (s *Service) Settings(ctx context.Context) (models.SystemSettings, error) {
	return s.store.Settings(ctx)
}

// SaveSettings persists new system settings and audits the change.
func (s *Service) SaveSettings(ctx context.Context, actor string, settings models.SystemSettings) error {
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return err
	}
	s.audit(ctx, "settings.update", actor, "")
	return nil
}

// Audit returns the most recent administrative actions.
func (s *Service) Audit(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	return s.store.Audit(ctx, limit)
}

func (s *Service) audit(ctx context.Context, action, actor, detail string) {
	if err := s.store.AppendAudit(ctx, action, actor, detail); err != nil {
		log.Printf("[AUDIT] recording %s failed: %v", action, err)
	}
}
