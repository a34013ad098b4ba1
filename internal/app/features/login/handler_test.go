package login_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gcnet/fieldtasks/internal/app/features/login"
	userstore "github.com/gcnet/fieldtasks/internal/app/store/users"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/testutil"
)

func newHandler(t *testing.T) (*login.Handler, *testutil.Fixtures, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	logger := testutil.NopLogger()
	h := login.NewHandler(
		auth.NewVerifier(users, logger),
		testutil.NewSessionManager(t),
		users,
		logger,
	)
	return h, testutil.NewFixtures(t, db), users
}

func postLogin(t *testing.T, h *login.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.SignIn(rec, req)
	return rec
}

func TestSignIn(t *testing.T) {
	h, fixtures, _ := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateUser(ctx, "joao.tecnico", "123456", "João Técnico", "Infraestrutura", "user")

	rec := postLogin(t, h, `{"username":"joao.tecnico","password":"123456"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Team     string `json:"team"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	if resp.FullName != "João Técnico" || resp.Team != "Infraestrutura" || resp.Role != "user" {
		t.Errorf("profile = %+v", resp)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("no session cookie set")
	}
}

func TestSignIn_UniformRejection(t *testing.T) {
	h, fixtures, _ := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fixtures.CreateUser(ctx, "joao.tecnico", "123456", "João Técnico", "Infraestrutura", "user")
	fixtures.CreateInactiveUser(ctx, "lucas.campo", "123456", "Lucas Campo", "Infraestrutura", "user")

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"joao.tecnico","password":"nope"}`},
		{"unknown user", `{"username":"ghost","password":"123456"}`},
		{"inactive account", `{"username":"lucas.campo","password":"123456"}`},
	}
	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postLogin(t, h, tc.body)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		})
	}
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("rejection bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestSignIn_BadRequest(t *testing.T) {
	h, _, _ := newHandler(t)

	for name, body := range map[string]string{
		"not json":         `{"username"`,
		"missing password": `{"username":"joao.tecnico"}`,
		"blank username":   `{"username":"  ","password":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := postLogin(t, h, body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSignIn_RegistersPushToken(t *testing.T) {
	h, fixtures, users := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fixtures.CreateUser(ctx, "joao.tecnico", "123456", "João Técnico", "Infraestrutura", "user")

	rec := postLogin(t, h, `{"username":"joao.tecnico","password":"123456","push_token":"ExponentPushToken[xyz]"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	stored, err := users.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.PushToken != "ExponentPushToken[xyz]" {
		t.Errorf("push token = %q", stored.PushToken)
	}
}
