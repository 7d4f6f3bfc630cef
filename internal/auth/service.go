package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"herdwatch/internal/audit"
	"herdwatch/internal/platform/middleware"
	"herdwatch/internal/store"
	dErrors "herdwatch/pkg/domain-errors"
	"herdwatch/pkg/secrets"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, username, role string) (string, error)
	TTL() time.Duration
}

// Service orchestrates registration and login.
type Service struct {
	users     UserStore
	tokens    TokenIssuer
	logger    *slog.Logger
	publisher audit.Publisher
	now       func() time.Time
}

type Option func(s *Service)

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(users UserStore, tokens TokenIssuer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		users:     users,
		tokens:    tokens,
		logger:    logger,
		publisher: audit.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account. Public registration always yields a farmer;
// only an admin caller may assign vet or admin roles.
func (s *Service) Register(ctx context.Context, req *RegisterRequest, actor *Principal) (*User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := RoleFarmer
	if req.Role != "" && req.Role != RoleFarmer {
		if actor == nil || !actor.IsAdmin() {
			return nil, dErrors.New(dErrors.CodeForbidden, "only admins can assign roles")
		}
		role = req.Role
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "username or email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.emit(ctx, audit.Event{
		ActorID: user.ID.String(),
		Actor:   user.Username,
		Action:  audit.ActionUserRegistered,
		Entity:  "user",
		EntityID: user.ID.String(),
	})
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req *LoginRequest, userAgent string) (*TokenResponse, *User, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same error as a bad password so usernames cannot be probed.
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Active {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "account is inactive")
	}
	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.emit(ctx, audit.Event{
		ActorID: user.ID.String(),
		Actor:   user.Username,
		Action:  audit.ActionUserLoggedIn,
		Entity:  "user",
		EntityID: user.ID.String(),
		Detail:  describeDevice(userAgent),
	})

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, user, nil
}

// GetUser returns the account for /auth/me.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "account is inactive")
	}
	return user, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	event.Timestamp = s.now()
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
	s.logger.InfoContext(ctx, event.Action,
		"actor_id", event.ActorID,
		"entity", event.Entity,
		"entity_id", event.EntityID,
		"request_id", event.RequestID,
		"log_type", "audit",
	)
}

// describeDevice summarizes the login device for the audit trail.
func describeDevice(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	desc := name + " " + version + " on " + ua.OS()
	if ua.Mobile() {
		desc += " (mobile)"
	}
	if ua.Bot() {
		desc += " (bot)"
	}
	return desc
}
