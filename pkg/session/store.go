package session

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"megacity/pkg/cache"
	"megacity/pkg/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie carried by the browser across reloads.
const CookieName = "megacity_sid"

var (
	ErrInvalidRole = errors.New("invalid user role")
	ErrNoIdentity  = errors.New("login carries no user id")
)

// Store keeps login sessions in Redis keyed by a cookie SID so a page
// reload does not log the user out. Login and Logout are the only
// mutators; everything else reads snapshots through Current.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache) *Store {
	hours := 12
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	return &Store{cache: c, ttl: time.Duration(hours) * time.Hour}
}

func sessionKey(sid string) string {
	return "session:" + sid
}

// WizardKey is where the SID's in-flight booking draft lives; Logout
// discards it together with the session record.
func WizardKey(sid string) string {
	return "wizard:" + sid
}

// Login persists the identity from a successful backend login and sets the
// session cookie. Role and user ID fall back to the token's claims when the
// response body omits them; a session that still has no valid role is
// rejected rather than stored.
func (s *Store) Login(c *fiber.Ctx, resp models.LoginResponse) (models.Session, error) {
	role := models.Role(resp.Role)
	userID := resp.UserID

	claimRole, claimSub, _ := tokenClaims(resp.Token)
	if !role.Valid() {
		role = claimRole
	}
	if userID == "" {
		userID = claimSub
	}

	if resp.Token == "" || !role.Valid() {
		return models.Session{}, ErrInvalidRole
	}
	// Current treats a record without a user id as corrupt and drops it,
	// so storing one would mean a login that works for exactly zero requests.
	if userID == "" {
		return models.Session{}, ErrNoIdentity
	}

	sess := models.Session{Token: resp.Token, UserID: userID, Role: role}
	sid := uuid.NewString()
	s.cache.Set(sessionKey(sid), sess, s.ttl)

	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    sid,
		MaxAge:   int(s.ttl.Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return sess, nil
}

// Current returns the session snapshot for this request. Any record that
// cannot be decoded into a full, unexpired identity is treated as
// anonymous and dropped: fail safe, never fail open.
func (s *Store) Current(c *fiber.Ctx) models.Session {
	sid := c.Cookies(CookieName)
	if sid == "" {
		return models.Session{}
	}

	var sess models.Session
	if !s.cache.Get(sessionKey(sid), &sess) {
		return models.Session{}
	}
	if sess.Token == "" || sess.UserID == "" || !sess.Role.Valid() {
		s.cache.Del(sessionKey(sid), WizardKey(sid))
		return models.Session{}
	}
	if _, _, exp := tokenClaims(sess.Token); !exp.IsZero() && exp.Before(time.Now()) {
		log.Printf("[SESSION] token expired for user=%s", sess.UserID)
		s.cache.Del(sessionKey(sid), WizardKey(sid))
		return models.Session{}
	}
	return sess
}

// Logout destroys the session and the in-flight booking draft.
func (s *Store) Logout(c *fiber.Ctx) {
	if sid := c.Cookies(CookieName); sid != "" {
		s.cache.Del(sessionKey(sid), WizardKey(sid))
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// SID exposes the session ID for per-session state such as the wizard.
func (s *Store) SID(c *fiber.Ctx) string {
	return c.Cookies(CookieName)
}

// tokenClaims decodes role, subject and expiry from the backend token.
// The storefront has no signing secret, so the claims are display data
// only; authorization is enforced by the backend on every call.
func tokenClaims(token string) (models.Role, string, time.Time) {
	if token == "" {
		return "", "", time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", "", time.Time{}
	}

	var role models.Role
	if r, ok := claims["role"].(string); ok {
		role = models.Role(r)
	}
	sub, _ := claims["sub"].(string)
	if uid, ok := claims["userId"].(string); ok && uid != "" {
		sub = uid
	}

	var exp time.Time
	if at, err := claims.GetExpirationTime(); err == nil && at != nil {
		exp = at.Time
	}
	return role, sub, exp
}
