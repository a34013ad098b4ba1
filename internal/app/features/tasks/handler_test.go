package tasks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gcnet/fieldtasks/internal/app/features/tasks"
	assignmentstore "github.com/gcnet/fieldtasks/internal/app/store/assignments"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/photos"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/gcnet/fieldtasks/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeNotifier struct {
	calls []notifyCall
}

type notifyCall struct {
	userID       primitive.ObjectID
	typ          models.NotificationType
	title        string
	assignmentID *primitive.ObjectID
}

func (f *fakeNotifier) Notify(_ context.Context, userID primitive.ObjectID, typ models.NotificationType, title, _ string, assignmentID *primitive.ObjectID) (models.Notification, error) {
	f.calls = append(f.calls, notifyCall{userID, typ, title, assignmentID})
	return models.Notification{ID: primitive.NewObjectID()}, nil
}

type fakeAttacher struct {
	got      []photos.Upload
	attached []models.Photo
	failed   int
}

func (f *fakeAttacher) Attach(_ context.Context, _ primitive.ObjectID, uploads []photos.Upload) ([]models.Photo, int, error) {
	f.got = uploads
	return f.attached, f.failed, nil
}

type env struct {
	server   http.Handler
	sessions *auth.SessionManager
	store    *assignmentstore.Store
	fixtures *testutil.Fixtures
	notifier *fakeNotifier
	attacher *fakeAttacher
	admin    models.User
	tech     models.User
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := &env{
		sessions: testutil.NewSessionManager(t),
		store:    assignmentstore.New(db),
		fixtures: fixtures,
		notifier: &fakeNotifier{},
		attacher: &fakeAttacher{},
		admin:    fixtures.CreateUser(ctx, "admin", "admin123", "Administrador", "Infraestrutura", "admin"),
		tech:     fixtures.CreateUser(ctx, "joao.tecnico", "123456", "João Técnico", "Infraestrutura", "user"),
	}

	h := tasks.NewHandler(e.store, e.attacher, e.notifier, testutil.NopLogger())
	r := chi.NewRouter()
	r.Use(e.sessions.LoadSessionUser)
	r.Mount("/tasks", tasks.Routes(h))
	e.server = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body io.Reader, as *models.User, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if as != nil {
		testutil.SignIn(t, e.sessions, req, &auth.SessionUser{
			ID:       as.ID.Hex(),
			Username: as.Username,
			Name:     as.FullName,
			Team:     as.Team,
			Role:     as.Role,
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
	e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)
	other := e.fixtures.CreateUser(ctx, "maria.campo", "123456", "Maria Campo", "Infraestrutura", "user")
	e.fixtures.CreateAssignment(ctx, "Vistoria de poste", e.admin.ID, other.ID)

	rec := e.do(t, http.MethodGet, "/tasks", nil, &e.tech, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var list []models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("tasks = %d, want 1", len(list))
	}
	if list[0].Title != "Troca de roteador" {
		t.Errorf("title = %q", list[0].Title)
	}
	if list[0].AssignedByName != "Administrador" {
		t.Errorf("assigned_by_name = %q", list[0].AssignedByName)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/tasks", nil, &e.tech, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestList_Unauthorized(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodGet, "/tasks", nil, nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGet_OtherUsersTaskIs404(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fixtures.CreateUser(ctx, "maria.campo", "123456", "Maria Campo", "Infraestrutura", "user")
	a := e.fixtures.CreateAssignment(ctx, "Vistoria de poste", e.admin.ID, other.ID)

	rec := e.do(t, http.MethodGet, "/tasks/"+a.ID.Hex(), nil, &e.tech, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreate(t *testing.T) {
	e := setup(t)

	body := `{"title":"Instalação de fibra","address":"Rua das Fibras, 42","priority":"high","assigned_to":"` + e.tech.ID.Hex() + `"}`
	rec := e.do(t, http.MethodPost, "/tasks", strings.NewReader(body), &e.admin, "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}

	var a models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if a.Status != "pending" {
		t.Errorf("status = %q, want pending", a.Status)
	}
	if a.Version != 1 {
		t.Errorf("version = %d, want 1", a.Version)
	}

	if len(e.notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(e.notifier.calls))
	}
	call := e.notifier.calls[0]
	if call.typ != models.NotifyTaskAssigned {
		t.Errorf("notification type = %q", call.typ)
	}
	if call.userID != e.tech.ID {
		t.Error("notification did not target the assignee")
	}
	if call.assignmentID == nil || *call.assignmentID != a.ID {
		t.Error("notification missing assignment reference")
	}
}

func TestCreate_NonAdminForbidden(t *testing.T) {
	e := setup(t)

	body := `{"title":"x","assigned_to":"` + e.tech.ID.Hex() + `"}`
	rec := e.do(t, http.MethodPost, "/tasks", strings.NewReader(body), &e.tech, "application/json")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if len(e.notifier.calls) != 0 {
		t.Error("notification sent for rejected dispatch")
	}
}

func TestUpdateStatus_Start(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	rec := e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"in_progress","notes":"cheguei no local"}`), &e.tech, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var got models.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if got.Status != "in_progress" {
		t.Errorf("status = %q", got.Status)
	}
	if got.StartedAt == nil {
		t.Error("started_at not set")
	}
	if got.Notes != "cheguei no local" {
		t.Errorf("notes = %q", got.Notes)
	}
	if len(e.notifier.calls) != 0 {
		t.Error("start must not notify anyone")
	}
}

func TestUpdateStatus_CompletionNotifiesAssigner(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	rec := e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"completed"}`), &e.tech, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	if len(e.notifier.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(e.notifier.calls))
	}
	if e.notifier.calls[0].typ != models.NotifyTaskCompleted {
		t.Errorf("notification type = %q", e.notifier.calls[0].typ)
	}
	if e.notifier.calls[0].userID != e.admin.ID {
		t.Error("completion did not notify the assigner")
	}

	// Re-completing is idempotent and must not notify again.
	rec = e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"completed"}`), &e.tech, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("re-complete status = %d, want 200", rec.Code)
	}
	if len(e.notifier.calls) != 1 {
		t.Errorf("notifications = %d after re-complete, want 1", len(e.notifier.calls))
	}
}

func TestUpdateStatus_CompletedIsTerminal(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	rec := e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"completed"}`), &e.tech, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, want 200", rec.Code)
	}

	rec = e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"pending"}`), &e.tech, "application/json")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateStatus_RejectsWireTokens(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	rec := e.do(t, http.MethodPut, "/tasks/"+a.ID.Hex()+"/status",
		strings.NewReader(`{"status":"em_andamento"}`), &e.tech, "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateStatus_UnknownAssignment(t *testing.T) {
	e := setup(t)

	rec := e.do(t, http.MethodPut, "/tasks/"+primitive.NewObjectID().Hex()+"/status",
		strings.NewReader(`{"status":"in_progress"}`), &e.tech, "application/json")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func multipartPhotos(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write([]byte("jpeg-bytes-" + name)); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	if err := mw.WriteField("description", "antes do reparo"); err != nil {
		t.Fatalf("writing field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestAttachPhotos(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	e.attacher.attached = []models.Photo{{ID: primitive.NewObjectID(), OriginalName: "antes.jpg"}}
	e.attacher.failed = 1

	body, contentType := multipartPhotos(t, "antes.jpg", "depois.jpg")
	rec := e.do(t, http.MethodPost, "/tasks/"+a.ID.Hex()+"/photos", body, &e.tech, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	if len(e.attacher.got) != 2 {
		t.Fatalf("uploads passed = %d, want 2", len(e.attacher.got))
	}
	if e.attacher.got[0].OriginalName != "antes.jpg" {
		t.Errorf("first upload name = %q", e.attacher.got[0].OriginalName)
	}
	if e.attacher.got[0].Description != "antes do reparo" {
		t.Errorf("description = %q", e.attacher.got[0].Description)
	}

	var resp struct {
		Photos []models.Photo `json:"photos"`
		Failed int            `json:"failed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if len(resp.Photos) != 1 || resp.Failed != 1 {
		t.Errorf("photos = %d, failed = %d; want 1 and 1", len(resp.Photos), resp.Failed)
	}
}

func TestAttachPhotos_NoFiles(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := e.fixtures.CreateAssignment(ctx, "Troca de roteador", e.admin.ID, e.tech.ID)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	rec := e.do(t, http.MethodPost, "/tasks/"+a.ID.Hex()+"/photos", &buf, &e.tech, mw.FormDataContentType())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
