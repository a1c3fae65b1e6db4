package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/safeher/platform/internal/auth"
	"github.com/safeher/platform/internal/docstore"
	"github.com/safeher/platform/internal/repo"
	"github.com/safeher/platform/internal/util"
)

var (
	// ErrInvalidCredentials signals a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountSuspended signals a suspended account.
	ErrAccountSuspended = errors.New("account is suspended")
	// ErrPendingApproval signals a community account awaiting admin approval.
	ErrPendingApproval = errors.New("account pending approval")
	// ErrRefreshInvalid signals an invalid or expired refresh token.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrEmailTaken signals a duplicate e-mail on registration.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPhoneTaken signals a duplicate phone on registration.
	ErrPhoneTaken = errors.New("phone already registered")
	// ErrInvalidSecretCode signals a wrong community registration code.
	ErrInvalidSecretCode = errors.New("invalid secret code")
	// ErrInvalidRole signals a role outside the community set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrDocumentRequired signals a missing identity document.
	ErrDocumentRequired = errors.New("identity document is required")
)

type authRepository interface {
	CreateUser(ctx context.Context, u repo.User) (repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (repo.User, error)
	GetUserByPhone(ctx context.Context, phone string) (repo.User, error)
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentrates authentication and registration rules.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	docs       docstore.Store
	codes      map[string]string
	refreshTTL time.Duration
}

// NewAuthService creates the service.
func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, docs docstore.Store, communityCodes map[string]string, refreshTTL time.Duration) *AuthService {
	if docs == nil {
		docs = docstore.NoopStore{}
	}
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, docs: docs, codes: communityCodes, refreshTTL: refreshTTL}
}

// JWT exposes the token manager (used by middleware).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// Identity is the public profile of an account.
type Identity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Approved  bool      `json:"is_approved"`
	Suspended bool      `json:"is_suspended"`
	CreatedAt time.Time `json:"created_at"`
}

func identityFromUser(u repo.User) Identity {
	return Identity{
		ID:        u.ID.String(),
		Name:      u.Name,
		Phone:     u.Phone,
		Email:     u.Email,
		Role:      u.Role,
		Approved:  u.Approved,
		Suspended: u.Suspended,
		CreatedAt: u.CreatedAt,
	}
}

// LoginResult is the standard authentication response.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         Identity
}

// RegisterWomanInput carries the fields of a woman registration.
type RegisterWomanInput struct {
	Name     string
	Phone    string
	Email    string
	Password string
	// Document is the identity document used for verification.
	Document     []byte
	DocumentType string
}

// RegisterCommunityInput carries the fields of a community registration.
type RegisterCommunityInput struct {
	Name       string
	Phone      string
	Email      string
	Password   string
	Role       string
	SecretCode string
}

// Login authenticates any role, enforcing suspension and approval gates.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: account not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: password verify failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := accountUsable(user); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// RegisterWoman creates an approved woman account after document verification
// and returns a ready session.
func (s *AuthService) RegisterWoman(ctx context.Context, input RegisterWomanInput) (*LoginResult, error) {
	if len(input.Document) == 0 {
		return nil, ErrDocumentRequired
	}

	if err := s.checkUniqueness(ctx, input.Email, input.Phone); err != nil {
		return nil, err
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	id := uuid.New()

	stored, err := s.docs.Save(ctx, docstore.Document{
		Key:         fmt.Sprintf("documents/%s", id),
		Body:        input.Document,
		ContentType: input.DocumentType,
	})
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	var docURL *string
	if stored.URL != "" {
		docURL = &stored.URL
	}

	user, err := s.repo.CreateUser(ctx, repo.User{
		ID:           id,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         repo.RoleWoman,
		Approved:     true,
		DocumentURL:  docURL,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// RegisterCommunity creates a pending community account. No token is issued:
// the account becomes usable only after admin approval.
func (s *AuthService) RegisterCommunity(ctx context.Context, input RegisterCommunityInput) (Identity, error) {
	role := strings.ToUpper(strings.TrimSpace(input.Role))

	valid := false
	for _, r := range repo.CommunityRoles {
		if r == role {
			valid = true
			break
		}
	}
	if !valid {
		return Identity{}, ErrInvalidRole
	}

	if s.codes[role] == "" || s.codes[role] != input.SecretCode {
		return Identity{}, ErrInvalidSecretCode
	}

	if err := s.checkUniqueness(ctx, input.Email, input.Phone); err != nil {
		return Identity{}, err
	}

	hash, err := auth.Hash(input.Password)
	if err != nil {
		return Identity{}, err
	}

	user, err := s.repo.CreateUser(ctx, repo.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: hash,
		Role:         role,
		Approved:     false,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return Identity{}, ErrEmailTaken
		}
		return Identity{}, err
	}

	return identityFromUser(user), nil
}

// Refresh exchanges a refresh token for a new token pair, rotating the old one.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if record.Revoked || time.Now().UTC().After(record.ExpiresAt) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUserByID(ctx, record.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if err := accountUsable(user); err != nil {
		return nil, err
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Rotate: revoke the presented token in DB and Redis.
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revokes the current refresh token.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe returns the profile for an authenticated subject, re-checking the
// suspension and approval gates on every call.
func (s *AuthService) GetMe(ctx context.Context, subject uuid.UUID) (Identity, error) {
	user, err := s.repo.GetUserByID(ctx, subject)
	if err != nil {
		return Identity{}, err
	}
	if err := accountUsable(user); err != nil {
		return Identity{}, err
	}
	return identityFromUser(user), nil
}

func (s *AuthService) issueTokens(ctx context.Context, user repo.User) (*LoginResult, error) {
	token, _, err := s.jwt.GenerateAccessToken(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := util.Now().Add(s.refreshTTL)
	if _, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        uuid.New(),
		Subject:   user.ID,
		TokenHash: refreshHash,
		ExpiresAt: expires,
		CreatedAt: util.Now(),
	}); err != nil {
		return nil, err
	}

	if err := s.repo.InvalidateOtherRefreshTokens(ctx, user.ID, refreshHash); err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, auth.RefreshRedisKey(refreshHash), "active", time.Until(expires)).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  token,
		RefreshToken: rawRefresh,
		User:         identityFromUser(user),
	}, nil
}

func (s *AuthService) checkUniqueness(ctx context.Context, email, phone string) error {
	if _, err := s.repo.GetUserByEmail(ctx, strings.ToLower(email)); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	if _, err := s.repo.GetUserByPhone(ctx, strings.TrimSpace(phone)); err == nil {
		return ErrPhoneTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	return nil
}

// accountUsable applies the suspension and approval gates shared by login,
// refresh and every authenticated profile read.
func accountUsable(user repo.User) error {
	if user.Suspended {
		return ErrAccountSuspended
	}
	if user.Role != repo.RoleWoman && user.Role != repo.RoleAdmin && !user.Approved {
		return ErrPendingApproval
	}
	return nil
}
