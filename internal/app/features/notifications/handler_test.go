package notifications_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gcnet/fieldtasks/internal/app/features/notifications"
	notificationstore "github.com/gcnet/fieldtasks/internal/app/store/notifications"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/gcnet/fieldtasks/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type env struct {
	server   http.Handler
	sessions *auth.SessionManager
	fixtures *testutil.Fixtures
	user     models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := &env{
		sessions: testutil.NewSessionManager(t),
		fixtures: fixtures,
		user:     fixtures.CreateUser(ctx, "joao.tecnico", "123456", "João Técnico", "Infraestrutura", "user"),
	}

	h := notifications.NewHandler(notificationstore.New(db), testutil.NopLogger())
	r := chi.NewRouter()
	r.Use(e.sessions.LoadSessionUser)
	r.Mount("/notifications", notifications.Routes(h))
	e.server = r
	return e
}

func (e *env) do(t *testing.T, method, path string, signedIn bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if signedIn {
		testutil.SignIn(t, e.sessions, req, &auth.SessionUser{
			ID:       e.user.ID.Hex(),
			Username: e.user.Username,
			Role:     e.user.Role,
		})
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskAssigned, "Nova tarefa")
	e.fixtures.CreateNotification(ctx, primitive.NewObjectID(), models.NotifyGeneral, "Outro usuário")

	rec := e.do(t, http.MethodGet, "/notifications", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var list []models.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list))
	}
	if list[0].Title != "Nova tarefa" {
		t.Errorf("title = %q", list[0].Title)
	}
}

func TestList_Unauthorized(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/notifications", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUnreadCount(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskAssigned, "Nova tarefa")
	e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskUpdated, "Tarefa atualizada")

	rec := e.do(t, http.MethodGet, "/notifications/unread-count", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp["unread"] != 2 {
		t.Errorf("unread = %d, want 2", resp["unread"])
	}
}

func TestMarkRead(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n := e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskAssigned, "Nova tarefa")

	rec := e.do(t, http.MethodPost, "/notifications/"+n.ID.Hex()+"/read", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	rec = e.do(t, http.MethodGet, "/notifications/unread-count", true)
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp["unread"] != 0 {
		t.Errorf("unread = %d, want 0", resp["unread"])
	}
}

func TestMarkRead_ForeignNotificationIs404(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n := e.fixtures.CreateNotification(ctx, primitive.NewObjectID(), models.NotifyTaskAssigned, "Alheia")

	rec := e.do(t, http.MethodPost, "/notifications/"+n.ID.Hex()+"/read", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMarkRead_BadID(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPost, "/notifications/not-an-id/read", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMarkAllRead(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskAssigned, "Uma")
	e.fixtures.CreateNotification(ctx, e.user.ID, models.NotifyTaskUpdated, "Duas")

	rec := e.do(t, http.MethodPost, "/notifications/read-all", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp["updated"] != 2 {
		t.Errorf("updated = %d, want 2", resp["updated"])
	}
}
