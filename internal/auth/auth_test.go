package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var alice = Identity{RoomCode: "ABCD", PlayerID: "p1", Nickname: "Alice", IsHost: true}

func TestNew_EmptySecretIsRandom(t *testing.T) {
	a := New("")
	b := New("")
	if string(a.secret) == "" {
		t.Fatal("expected a generated secret")
	}
	if string(a.secret) == string(b.secret) {
		t.Error("expected different generated secrets")
	}
}

func TestIssueAndParse(t *testing.T) {
	a := New("test-secret")

	token, err := a.Issue(alice)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	id, err := a.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if *id != alice {
		t.Errorf("expected %+v, got %+v", alice, *id)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, _ := New("one").Issue(alice)

	if _, err := New("two").Parse(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	a := New("test-secret")
	issued := time.Now()
	a.now = func() time.Time { return issued }
	token, _ := a.Issue(alice)

	a.now = func() time.Time { return issued.Add(TokenExpiry + time.Minute) }
	if _, err := a.Parse(token); err != ErrInvalidToken {
		t.Errorf("expected expired token to fail, got %v", err)
	}
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	a := New("test-secret")
	claims := &PlayerClaims{RoomCode: "ABCD", PlayerID: "p1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := a.Parse(token); err != ErrInvalidToken {
		t.Errorf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := New("s").Parse("not-a-token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestFromRequest_Sources(t *testing.T) {
	a := New("test-secret")
	token, _ := a.Issue(alice)

	tests := []struct {
		name  string
		build func(r *http.Request)
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) }},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }},
		{"query", func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", token)
			r.URL.RawQuery = q.Encode()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/rooms/ABCD", nil)
			tt.build(req)
			id, err := a.FromRequest(req)
			if err != nil {
				t.Fatalf("FromRequest failed: %v", err)
			}
			if id.PlayerID != "p1" {
				t.Errorf("expected p1, got %s", id.PlayerID)
			}
		})
	}
}

func TestFromRequest_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, err := New("s").FromRequest(req); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequirePlayer(t *testing.T) {
	a := New("test-secret")
	token, _ := a.Issue(alice)

	var seen *Identity
	handler := a.RequirePlayer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "UNAUTHORIZED") {
		t.Errorf("expected UNAUTHORIZED body, got %s", w.Body.String())
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
	if seen == nil || seen.Nickname != "Alice" {
		t.Errorf("expected identity in context, got %+v", seen)
	}
}

func TestRequireAdmin(t *testing.T) {
	a := New("test-secret")
	a.SetAdminToken("letmein")
	playerToken, _ := a.Issue(alice)

	handler := a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"wrong token", map[string]string{AdminHeader: "nope"}, http.StatusUnauthorized},
		{"host player token", map[string]string{"Authorization": "Bearer " + playerToken}, http.StatusUnauthorized},
		{"admin token", map[string]string{AdminHeader: "letmein"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequireAdmin_LockedWithoutToken(t *testing.T) {
	a := New("test-secret")
	handler := a.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("PUT", "/", nil)
	req.Header.Set(AdminHeader, "")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with no admin token configured, got %d", w.Code)
	}
}

func TestGenerateAdminToken(t *testing.T) {
	a, b := GenerateAdminToken(), GenerateAdminToken()
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %q", a)
	}
	if a == b {
		t.Error("expected different tokens")
	}
}

func TestIdentityFrom_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := IdentityFrom(req.Context()); ok {
		t.Error("expected no identity")
	}
}

func TestPlayerCookie(t *testing.T) {
	w := httptest.NewRecorder()
	SetPlayerCookie(w, "tok")
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != "tok" || !cookies[0].HttpOnly {
		t.Errorf("unexpected cookie: %+v", cookies)
	}

	w = httptest.NewRecorder()
	ClearPlayerCookie(w)
	cookies = w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expired cookie, got %+v", cookies)
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret" || hash == "" {
		t.Fatal("expected a bcrypt hash")
	}
	if !CheckPassword(hash, "secret") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "Secret") {
		t.Error("expected wrong password to fail")
	}

	empty, err := HashPassword("")
	if err != nil || empty != "" {
		t.Errorf("expected empty hash for empty password, got %q %v", empty, err)
	}
	if !CheckPassword("", "anything") {
		t.Error("rooms without a password accept any input")
	}
}
