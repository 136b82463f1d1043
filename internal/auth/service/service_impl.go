package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/internal/auth/domain"
	"github.com/societyos/upkeep/internal/auth/password"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	resetTokenBytes   = 32
	resetTokenTTL     = 1 * time.Hour

	minPasswordLength = 8
)

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock
	sessionTTL  time.Duration
}

type ServiceParam struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	GenID       *snowflake.Node
	Clock       clock.Clock
}

func New(p ServiceParam) domain.Service {
	ttl := time.Duration(p.Config.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{
		log:         p.Log.Named("auth.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		clock:       p.Clock,
		sessionTTL:  ttl,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = domain.RoleResident
	case domain.RoleOwner, domain.RoleAdmin, domain.RoleResident:
	default:
		return nil, domain.ErrInvalidRole
	}
	if role != domain.RoleOwner && req.OrgID == nil {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindOne(ctx, domain.User{
		Email: email,
	}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	user := &domain.User{
		ID:                  s.genID.Generate(),
		Email:               email,
		DisplayName:         displayName,
		Phone:               strings.TrimSpace(req.Phone),
		PasswordHash:        &hashed,
		Role:                role,
		OrgID:               req.OrgID,
		UnitID:              req.UnitID,
		LastPasswordChanged: &now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
	)
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: email})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	rawToken, err := newRandomToken(sessionTokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(req.UserAgent),
		IPAddress:        strings.TrimSpace(req.IPAddress),
		ExpiresAt:        now.Add(s.sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}

	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *Service) GetUser(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, req domain.ListUsersRequest) ([]domain.User, error) {
	filter := domain.User{Role: strings.ToUpper(strings.TrimSpace(req.Role))}
	if req.OrgID != 0 {
		orgID := req.OrgID
		filter.OrgID = &orgID
	}
	return s.repo.Find(ctx, filter)
}

func (s *Service) ChangePassword(ctx context.Context, userID snowflake.ID, current, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !password.Verify(current, *user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	fields := map[string]any{
		"password_hash":         hashed,
		"last_password_changed": &now,
		"updated_at":            now,
	}
	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		return err
	}

	// A password change invalidates every open session for the account.
	return s.sessionRepo.RevokeUserSessions(ctx, userID, now)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return "", domain.ErrUserNotFound
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: addr})
	if err != nil {
		return "", err
	}

	rawToken, err := newRandomToken(resetTokenBytes)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	tokenHash := hashToken(rawToken)
	expiresAt := now.Add(resetTokenTTL)
	fields := map[string]any{
		"reset_token_hash":       &tokenHash,
		"reset_token_expires_at": &expiresAt,
		"updated_at":             now,
	}
	if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
		return "", err
	}

	return rawToken, nil
}

func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	addr, err := normalizeEmail(email)
	if err != nil {
		return domain.ErrInvalidResetToken
	}
	if len(strings.TrimSpace(newPassword)) < minPasswordLength {
		return domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{Email: addr})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}

	now := s.clock.Now()
	if user.ResetTokenHash == nil || user.ResetTokenExpiresAt == nil {
		return domain.ErrInvalidResetToken
	}
	if now.After(*user.ResetTokenExpiresAt) {
		return domain.ErrInvalidResetToken
	}
	if hashToken(strings.TrimSpace(token)) != *user.ResetTokenHash {
		return domain.ErrInvalidResetToken
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"password_hash":          hashed,
		"last_password_changed":  &now,
		"reset_token_hash":       nil,
		"reset_token_expires_at": nil,
		"updated_at":             now,
	}
	if err := s.repo.UpdateFields(ctx, user.ID, fields); err != nil {
		return err
	}

	return s.sessionRepo.RevokeUserSessions(ctx, user.ID, now)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}

func newRandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
