package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/authcore/internal/email"
	httpx "github.com/dropDatabas3/authcore/internal/http"
	adminctrl "github.com/dropDatabas3/authcore/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authcore/internal/http/controllers/auth"
	adminsvc "github.com/dropDatabas3/authcore/internal/http/services/admin"
	authsvc "github.com/dropDatabas3/authcore/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/authcore/internal/jwt"
	"github.com/dropDatabas3/authcore/internal/rate"
	"github.com/dropDatabas3/authcore/internal/security/password"
	"github.com/dropDatabas3/authcore/internal/store/memory"
)

type nullSender struct{}

func (nullSender) Send(context.Context, string, string, string, string) error { return nil }

type testEnv struct {
	srv    *httptest.Server
	store  *memory.Store
	issuer *jwtx.Issuer
}

func newTestEnv(t *testing.T, limiter rate.Limiter) *testEnv {
	t.Helper()
	store := memory.New()
	issuer := jwtx.NewIssuer("authcore-test", []byte("secreto-de-test-del-router-http!"))
	revoker := jwtx.NoopRevoker{}

	svc := authsvc.New(authsvc.Deps{
		Users:  store.Users(),
		Tokens: store.SecretTokens(),
		Hasher: password.NewHasher(password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}, 2),
		Policy: password.DefaultPolicy,
		Issuer: issuer,
		Guard:  rate.NewMemoryGuard(5, 15*time.Minute),
		Flows:  &email.Flows{Sender: nullSender{}, BaseURL: "http://test.local"},
	})
	admin := adminsvc.New(adminsvc.Deps{Users: store.Users(), Tokens: store.SecretTokens()})

	router := httpx.NewRouter(httpx.RouterDeps{
		Auth:    authctrl.New(svc),
		Admin:   adminctrl.New(admin),
		Issuer:  issuer,
		Revoker: revoker,
		Limiter: limiter,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: store, issuer: issuer}
}

func (e *testEnv) post(t *testing.T, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	return e.do(t, http.MethodPost, path, body, headers)
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func registerAndLogin(t *testing.T, e *testEnv, emailAddr string) (access string, userID string) {
	t.Helper()
	resp, out := e.post(t, "/auth/register", map[string]string{
		"email": emailAddr, "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d (%v)", resp.StatusCode, out)
	}
	access, _ = out["access_token"].(string)
	user, _ := out["user"].(map[string]any)
	userID, _ = user["id"].(string)
	if access == "" || userID == "" {
		t.Fatalf("register response incompleta: %v", out)
	}
	return access, userID
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRegisterLoginMe(t *testing.T) {
	e := newTestEnv(t, nil)
	_, userID := registerAndLogin(t, e, "alice@example.com")

	resp, out := e.post(t, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d (%v)", resp.StatusCode, out)
	}
	access, _ := out["access_token"].(string)

	resp, out = e.do(t, http.MethodGet, "/auth/me", nil, bearer(access))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d (%v)", resp.StatusCode, out)
	}
	if out["id"] != userID {
		t.Fatalf("me devolvió otro usuario: %v", out)
	}
	if _, leaked := out["password_hash"]; leaked {
		t.Fatal("la respuesta expone el hash")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	e := newTestEnv(t, nil)
	registerAndLogin(t, e, "alice@example.com")

	resp, _ := e.post(t, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "Incorrecto1",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	respUnknown, _ := e.post(t, "/auth/login", map[string]string{
		"email": "nadie@example.com", "password": "Incorrecto1",
	}, nil)
	if respUnknown.StatusCode != http.StatusUnauthorized {
		t.Fatalf("email inexistente: status = %d, want 401", respUnknown.StatusCode)
	}
}

func TestLockoutReturns429WithRetryAfter(t *testing.T) {
	e := newTestEnv(t, nil)
	registerAndLogin(t, e, "bob@example.com")

	for i := 0; i < 5; i++ {
		resp, _ := e.post(t, "/auth/login", map[string]string{
			"email": "bob@example.com", "password": "Mal-pass1",
		}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("intento %d: status %d", i+1, resp.StatusCode)
		}
	}

	resp, _ := e.post(t, "/auth/login", map[string]string{
		"email": "bob@example.com", "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("falta header Retry-After")
	}
}

func TestRegisterConflict(t *testing.T) {
	e := newTestEnv(t, nil)
	registerAndLogin(t, e, "alice@example.com")

	resp, _ := e.post(t, "/auth/register", map[string]string{
		"email": "alice@example.com", "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestMeRequiresToken(t *testing.T) {
	e := newTestEnv(t, nil)

	resp, _ := e.do(t, http.MethodGet, "/auth/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("sin token: status %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodGet, "/auth/me", nil, bearer("no-es-un-jwt"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("token basura: status %d", resp.StatusCode)
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	e := newTestEnv(t, nil)
	registerAndLogin(t, e, "alice@example.com")

	resp, out := e.post(t, "/auth/login", map[string]string{
		"email": "alice@example.com", "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d", resp.StatusCode)
	}
	refresh, _ := out["refresh_token"].(string)

	// audiencia disjunta: un refresh token no autentica requests
	resp, _ = e.do(t, http.MethodGet, "/auth/me", nil, bearer(refresh))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRefreshInvalidTokenIs401(t *testing.T) {
	e := newTestEnv(t, nil)

	// un refresh que no se puede verificar es falla de autenticación, no 400
	resp, out := e.post(t, "/auth/refresh", map[string]string{
		"refresh_token": "basura-que-no-es-jwt",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh basura: status %d (%v), want 401", resp.StatusCode, out)
	}

	// un access token tampoco canjea: audiencia incorrecta
	access, _ := registerAndLogin(t, e, "alice@example.com")
	resp, _ = e.post(t, "/auth/refresh", map[string]string{"refresh_token": access}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("access como refresh: status %d, want 401", resp.StatusCode)
	}
}

func TestForgotPasswordAlways200(t *testing.T) {
	e := newTestEnv(t, nil)
	registerAndLogin(t, e, "alice@example.com")

	// mismo status exista o no la cuenta: anti-enumeración
	for _, addr := range []string{"alice@example.com", "nadie@example.com"} {
		resp, _ := e.post(t, "/auth/forgot-password", map[string]string{"email": addr}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("forgot-password %s: status %d, want 200", addr, resp.StatusCode)
		}
	}
}

func TestAdminRBAC(t *testing.T) {
	e := newTestEnv(t, nil)
	staffAccess, _ := registerAndLogin(t, e, "staff@example.com")
	_, targetID := registerAndLogin(t, e, "victim@example.com")

	// staff no entra a /admin
	resp, _ := e.post(t, fmt.Sprintf("/admin/users/%s/deactivate", targetID), nil, bearer(staffAccess))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("staff en /admin: status %d, want 403", resp.StatusCode)
	}

	// un administrador sí
	adminAccess, _, err := e.issuer.IssueAccess("admin-id", "administrator")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	resp, _ = e.post(t, fmt.Sprintf("/admin/users/%s/deactivate", targetID), nil, bearer(adminAccess))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin deactivate: status %d", resp.StatusCode)
	}

	// la cuenta quedó apagada: login rechazado
	resp, _ = e.post(t, "/auth/login", map[string]string{
		"email": "victim@example.com", "password": "Abcdef12",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login de cuenta apagada: status %d", resp.StatusCode)
	}
}

func TestAdminChangeRole(t *testing.T) {
	e := newTestEnv(t, nil)
	_, targetID := registerAndLogin(t, e, "user@example.com")
	adminAccess, _, _ := e.issuer.IssueAccess("admin-id", "administrator")

	resp, out := e.do(t, http.MethodPut, fmt.Sprintf("/admin/users/%s/role", targetID),
		map[string]string{"role": "manager"}, bearer(adminAccess))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d (%v)", resp.StatusCode, out)
	}
	if out["role"] != "manager" {
		t.Fatalf("role = %v", out["role"])
	}

	resp, _ = e.do(t, http.MethodPut, fmt.Sprintf("/admin/users/%s/role", targetID),
		map[string]string{"role": "emperor"}, bearer(adminAccess))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("rol inválido: status %d, want 400", resp.StatusCode)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	e := newTestEnv(t, rate.NewMemoryLimiter(3, time.Minute))

	for i := 0; i < 3; i++ {
		resp, _ := e.do(t, http.MethodGet, "/healthz", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, resp.StatusCode)
		}
	}
	resp, _ := e.do(t, http.MethodGet, "/healthz", nil, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("falta header Retry-After")
	}
}

func TestInvalidJSONBody(t *testing.T) {
	e := newTestEnv(t, nil)
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/auth/register", bytes.NewBufferString("{no es json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
