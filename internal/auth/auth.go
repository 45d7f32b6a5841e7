package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	CookieName  = "quizattack_player"
	TokenExpiry = 24 * time.Hour
	AdminHeader = "X-Admin-Token"
)

var ErrInvalidToken = errors.New("invalid or expired player token")

// Identity is who a player token speaks for
type Identity struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"is_host"`
}

// PlayerClaims are the JWT claims of a room-scoped player token
type PlayerClaims struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	IsHost   bool   `json:"isHost,omitempty"`
	jwt.RegisteredClaims
}

// Auth issues and checks player tokens
type Auth struct {
	secret     []byte
	adminToken string
	now        func() time.Time
}

// New creates an Auth signing with secret. An empty secret gets a random one,
// which invalidates tokens across restarts.
func New(secret string) *Auth {
	if secret == "" {
		secret = GenerateSecret()
	}
	return &Auth{secret: []byte(secret), now: time.Now}
}

// GenerateSecret returns 32 random bytes, hex encoded
func GenerateSecret() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GenerateAdminToken returns a short random operator token
func GenerateAdminToken() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// SetAdminToken sets the operator token checked by RequireAdmin. While it is
// empty every admin request is refused.
func (a *Auth) SetAdminToken(token string) {
	a.adminToken = token
}

// IsAdmin reports whether r carries the operator token
func (a *Auth) IsAdmin(r *http.Request) bool {
	token := r.Header.Get(AdminHeader)
	if a.adminToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) == 1
}

// Issue signs a token for id
func (a *Auth) Issue(id Identity) (string, error) {
	now := a.now()
	claims := &PlayerClaims{
		RoomCode: id.RoomCode,
		PlayerID: id.PlayerID,
		Nickname: id.Nickname,
		IsHost:   id.IsHost,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.PlayerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse validates a token and returns its identity
func (a *Auth) Parse(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PlayerClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*PlayerClaims)
	if !ok || !token.Valid || claims.PlayerID == "" || claims.RoomCode == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		RoomCode: claims.RoomCode,
		PlayerID: claims.PlayerID,
		Nickname: claims.Nickname,
		IsHost:   claims.IsHost,
	}, nil
}

// FromRequest reads the token from the cookie, a bearer header or the token
// query parameter, in that order
func (a *Auth) FromRequest(r *http.Request) (*Identity, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if id, err := a.Parse(cookie.Value); err == nil {
			return id, nil
		}
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return a.Parse(strings.TrimPrefix(h, "Bearer "))
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return a.Parse(tok)
	}
	return nil, ErrInvalidToken
}

type identityKey struct{}

// WithIdentity stores id in ctx
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity placed by RequirePlayer
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// RequirePlayer middleware for API endpoints (returns 401)
func (a *Auth) RequirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.FromRequest(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Join the room first"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin middleware for operator endpoints (returns 401)
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.IsAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Admin token required"}`))
	})
}

// SetPlayerCookie sets the player token cookie on the response
func SetPlayerCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(TokenExpiry.Seconds()),
	})
}

// ClearPlayerCookie removes the player cookie
func ClearPlayerCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// HashPassword hashes a room password. An empty password stays empty.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. Rooms without a
// password accept anything.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
