// Package identity keeps the signed-in user and the display locale. Authentication is simulated:
// any well-formed email signs in.
package identity

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/errs"
	"github.com/spigell/nexaforge/internal/i18n"
	"github.com/spigell/nexaforge/internal/storage"
)

const (
	AuthKey = "nexaforge_auth"
	UserKey = "nexaforge_user"

	RoleCandidate = "CANDIDATE"

	avatarURL = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s"
)

// DefaultAvatar is used when a login does not pick one.
var DefaultAvatar = fmt.Sprintf(avatarURL, "Nexa")

type User struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
	IsPro  bool   `json:"isPro"`
}

type LoginRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Avatar     string `json:"avatar" validate:"omitempty,url"`
	RememberMe bool   `json:"rememberMe"`
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	Authenticated bool          `json:"authenticated"`
	User          *User         `json:"user,omitempty"`
	Locale        i18n.Language `json:"locale"`
	RTL           bool          `json:"rtl"`
}

type Session struct {
	store    storage.Store
	logger   *zap.Logger
	validate *validator.Validate

	mu            sync.RWMutex
	authenticated bool
	user          *User
	locale        i18n.Language
}

func New(store storage.Store, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		store:    store,
		logger:   logger,
		validate: validator.New(),
		locale:   i18n.English,
	}
}

// Restore loads the persisted session. Unparsable values leave the session signed out.
func (s *Session) Restore() Snapshot {
	var authenticated bool
	var user User

	authOK := storage.LoadJSON(s.store, AuthKey, &authenticated, s.logger)
	userOK := storage.LoadJSON(s.store, UserKey, &user, s.logger)

	s.mu.Lock()
	s.authenticated = authOK && authenticated && userOK
	s.user = nil
	if s.authenticated {
		s.user = &user
	}
	s.mu.Unlock()

	return s.Snapshot()
}

func (s *Session) Login(req LoginRequest) (*User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, errs.Validation("login", err.Error())
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name, _, _ = strings.Cut(req.Email, "@")
	}

	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = DefaultAvatar
	}

	user := &User{
		Name:   name,
		Email:  req.Email,
		Avatar: avatar,
		Role:   RoleCandidate,
		IsPro:  true,
	}

	if req.RememberMe {
		if err := storage.SaveJSON(s.store, UserKey, user); err != nil {
			return nil, err
		}
	}
	if err := storage.SaveJSON(s.store, AuthKey, true); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.authenticated = true
	s.user = user
	s.mu.Unlock()

	s.logger.Info("user signed in", zap.String("email", user.Email), zap.Bool("remember_me", req.RememberMe))

	copied := *user
	return &copied, nil
}

func (s *Session) Logout() error {
	s.mu.Lock()
	s.authenticated = false
	s.user = nil
	s.mu.Unlock()

	if err := s.store.Delete(AuthKey); err != nil {
		return fmt.Errorf("delete %s: %w", AuthKey, err)
	}
	if err := s.store.Delete(UserKey); err != nil {
		return fmt.Errorf("delete %s: %w", UserKey, err)
	}
	return nil
}

func (s *Session) SetLocale(code string) (i18n.Language, error) {
	lang, err := i18n.Parse(code)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.locale = lang
	s.mu.Unlock()

	return lang, nil
}

func (s *Session) Locale() i18n.Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Authenticated: s.authenticated,
		Locale:        s.locale,
		RTL:           s.locale.IsRTL(),
	}
	if s.user != nil {
		copied := *s.user
		snap.User = &copied
	}
	return snap
}

// RandomAvatar returns an avatar URL with a fresh seed.
func RandomAvatar() string {
	return fmt.Sprintf(avatarURL, strings.ReplaceAll(uuid.NewString(), "-", "")[:7])
}
