package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenCookieName = "starmatch_token"
	defaultSecret   = "dev_secret_change_me"
)

var errNoToken = errors.New("no player token")

// playerClaims ties a bearer to the one game it started.
type playerClaims struct {
	GameID string `json:"gid"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 player tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration, secure bool, now func() time.Time) *tokenIssuer {
	if secret == "" {
		secret = defaultSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, secure: secure, now: now}
}

// sign creates a token for gameID and returns it with its expiry.
func (ti *tokenIssuer) sign(gameID string) (string, time.Time, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		GameID: gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(ti.secret)
	return ss, exp, err
}

// gameID verifies raw and returns the game it was issued for.
func (ti *tokenIssuer) gameID(raw string) (string, error) {
	var claims playerClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.GameID == "" {
		return "", jwt.ErrTokenInvalidClaims
	}
	return claims.GameID, nil
}

// fromRequest returns the game ID carried by the request's token, if any.
func (ti *tokenIssuer) fromRequest(r *http.Request) (string, error) {
	raw := bearerOrCookie(r)
	if raw == "" {
		return "", errNoToken
	}
	return ti.gameID(raw)
}

// setCookie writes the player token cookie.
func (ti *tokenIssuer) setCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if ti.secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   ti.secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(tokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ctxGameKey is the context key for the token's game ID.
type ctxGameKey struct{}

// requireGameToken enforces a valid player token issued for the {id} route
// parameter.
func (s *Server) requireGameToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gid, err := s.tokens.fromRequest(r)
		if errors.Is(err, errNoToken) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		if gid != chi.URLParam(r, "id") {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		ctx := context.WithValue(r.Context(), ctxGameKey{}, gid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
