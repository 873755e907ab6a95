package requests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/playvault/game-request-api/internal/models"
)

func newTestService(t *testing.T) (*Service, *recordingNotifier) {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	notifier := &recordingNotifier{}
	return NewService(store, notifier), notifier
}

type recordingNotifier struct {
	mu            sync.Mutex
	created       []models.GameRequest
	statusChanges []models.RequestStatus
	fail          bool
}

func (n *recordingNotifier) NotifyNewRequest(_ context.Context, r models.GameRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("telegram unreachable")
	}
	n.created = append(n.created, r)
	return nil
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, r models.GameRequest, _ models.RequestStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("telegram unreachable")
	}
	n.statusChanges = append(n.statusChanges, r.Status)
	return nil
}

func TestCreateAndGetRequest(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", models.GameRequestCreate{
		GameName:  "Outer Wilds",
		CatalogID: 26192,
		Comment:   "please add",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.PublicID == "" {
		t.Error("created request has no public id")
	}
	if created.Status != models.StatusPending {
		t.Errorf("status = %s, want pending (approval required by default)", created.Status)
	}

	got, err := svc.Get(ctx, created.PublicID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.GameName != "Outer Wilds" || got.Requester != "alice" {
		t.Errorf("round trip lost fields: %+v", got)
	}

	if len(notifier.created) != 1 {
		t.Errorf("notifier called %d times, want 1", len(notifier.created))
	}
}

func TestCreateEnforcesQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.MaxRequestsPerUser = 2
	if err := svc.SaveSettings(ctx, "admin", settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(ctx, "bob", models.GameRequestCreate{GameName: fmt.Sprintf("game %d", i)}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	_, err := svc.Create(ctx, "bob", models.GameRequestCreate{GameName: "one too many"})
	if !errors.Is(err, ErrLimitReached) {
		t.Errorf("third create = %v, want ErrLimitReached", err)
	}

	// Another user is unaffected.
	if _, err := svc.Create(ctx, "carol", models.GameRequestCreate{GameName: "game 0"}); err != nil {
		t.Errorf("other requester blocked: %v", err)
	}
}

func TestCreateRejectsDuplicateGame(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	payload := models.GameRequestCreate{GameName: "Hades", CatalogID: 113112}
	if _, err := svc.Create(ctx, "alice", payload); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(ctx, "alice", payload)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate create = %v, want ErrDuplicate", err)
	}

	// A rejected request frees the slot for a retry.
	list, _ := svc.List(ctx, "", "alice")
	rejected := models.StatusRejected
	if _, err := svc.Update(ctx, list[0].PublicID, "admin", models.GameRequestUpdate{Status: &rejected}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Create(ctx, "alice", payload); err != nil {
		t.Errorf("create after rejection = %v, want success", err)
	}
}

func TestCreateRejectsDuplicateByName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Free-text requests carry no catalog id; duplicates are caught by
	// comparing normalized titles.
	if _, err := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "Pokémon Émeraude"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "  pokemon   EMERAUDE "})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("same title re-requested = %v, want ErrDuplicate", err)
	}

	// A different requester is not blocked by alice's request.
	if _, err := svc.Create(ctx, "bob", models.GameRequestCreate{GameName: "Pokemon Emeraude"}); err != nil {
		t.Errorf("other requester blocked: %v", err)
	}

	// A rejected request frees the title for a retry.
	list, _ := svc.List(ctx, "", "alice")
	rejected := models.StatusRejected
	if _, err := svc.Update(ctx, list[0].PublicID, "admin", models.GameRequestUpdate{Status: &rejected}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "Pokemon Emeraude"}); err != nil {
		t.Errorf("create after rejection = %v, want success", err)
	}
}

func TestAutoApprovalWhenApprovalDisabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.RequireAdminApproval = false
	if err := svc.SaveSettings(ctx, "admin", settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	created, err := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "Celeste"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", created.Status)
	}
}

func TestUpdateStatusNotifiesAndAudits(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "Factorio"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	completed := models.StatusCompleted
	notes := "added to library"
	updated, err := svc.Update(ctx, created.PublicID, "admin", models.GameRequestUpdate{
		Status:     &completed,
		AdminNotes: &notes,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != models.StatusCompleted || updated.AdminNotes != notes {
		t.Errorf("update not applied: %+v", updated)
	}

	if len(notifier.statusChanges) != 1 || notifier.statusChanges[0] != models.StatusCompleted {
		t.Errorf("status change notifications = %v, want [completed]", notifier.statusChanges)
	}

	entries, err := svc.Audit(ctx, 10)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	if len(entries) < 2 {
		t.Errorf("audit log has %d entries, want create + update", len(entries))
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "x"})
	bogus := models.RequestStatus("archived")
	_, err := svc.Update(ctx, created.PublicID, "admin", models.GameRequestUpdate{Status: &bogus})
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Update with bogus status = %v, want ErrInvalidStatus", err)
	}
}

func TestNotifierFailureDoesNotFailCreate(t *testing.T) {
	svc, notifier := newTestService(t)
	notifier.fail = true

	if _, err := svc.Create(context.Background(), "alice", models.GameRequestCreate{GameName: "x"}); err != nil {
		t.Errorf("Create with failing notifier = %v, want success", err)
	}
}

func TestDeleteRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "x"})

	if err := svc.Delete(ctx, created.PublicID, "mallory", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign delete = %v, want ErrForbidden", err)
	}

	approved := models.StatusApproved
	if _, err := svc.Update(ctx, created.PublicID, "admin", models.GameRequestUpdate{Status: &approved}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, created.PublicID, "alice", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("deleting a non-pending request = %v, want ErrForbidden", err)
	}

	if err := svc.Delete(ctx, created.PublicID, "admin", true); err != nil {
		t.Errorf("admin delete = %v, want success", err)
	}
	if _, err := svc.Get(ctx, created.PublicID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestGameStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	const gameID = 7346

	status, err := svc.GameStatus(ctx, "alice", gameID)
	if err != nil {
		t.Fatalf("GameStatus: %v", err)
	}
	if !status.CanRequest || status.UserHasRequest || status.IsAvailable {
		t.Errorf("fresh game status = %+v, want requestable", status)
	}

	created, _ := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "Zelda", CatalogID: gameID})

	status, _ = svc.GameStatus(ctx, "alice", gameID)
	if !status.UserHasRequest || status.CanRequest || !status.HasPendingRequest {
		t.Errorf("status after own request = %+v", status)
	}

	completed := models.StatusCompleted
	if _, err := svc.Update(ctx, created.PublicID, "admin", models.GameRequestUpdate{Status: &completed}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	status, _ = svc.GameStatus(ctx, "bob", gameID)
	if !status.IsAvailable || status.CanRequest {
		t.Errorf("status after completion = %+v, want available and not requestable", status)
	}
}

func TestListFiltersAndStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "alice", models.GameRequestCreate{GameName: "one"})
	svc.Create(ctx, "bob", models.GameRequestCreate{GameName: "two"})

	approved := models.StatusApproved
	if _, err := svc.Update(ctx, a.PublicID, "admin", models.GameRequestUpdate{Status: &approved}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	pending, err := svc.List(ctx, models.StatusPending, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 || pending[0].Requester != "bob" {
		t.Errorf("pending list = %+v, want bob's request only", pending)
	}

	mine, err := svc.List(ctx, "", "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 1 || mine[0].GameName != "one" {
		t.Errorf("alice's list = %+v", mine)
	}

	if _, err := svc.List(ctx, models.RequestStatus("nope"), ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("List with bogus status filter should fail")
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[models.StatusPending] != 1 || stats[models.StatusApproved] != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("first read = %+v, want defaults", settings)
	}

	settings.TelegramEnabled = true
	settings.TelegramChatID = "-100123"
	settings.MaxRequestsPerUser = 10
	if err := svc.SaveSettings(ctx, "admin", settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got != settings {
		t.Errorf("reloaded settings = %+v, want %+v", got, settings)
	}
}
