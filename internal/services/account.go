package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/accounthub/apiserver/internal/cache"
	"github.com/accounthub/apiserver/internal/credentials"
	"github.com/accounthub/apiserver/internal/store"
	"github.com/accounthub/apiserver/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultUserRole = "user"

// ErrInvalidCredentials is returned for an unknown username or a wrong
// password. The two cases are deliberately indistinguishable so callers
// cannot probe which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrNoPassword is returned when the account exists but has no stored
// password hash to verify against.
var ErrNoPassword = errors.New("user has no password stored")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) error
	GetByUsername(ctx context.Context, username string) (types.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context) ([]types.User, error)
}

// EventPublisher emits account lifecycle events. Implementations must be
// best-effort; the account flows never fail on a publish error.
type EventPublisher interface {
	AccountRegistered(ctx context.Context, user types.User) error
	AccountLoggedIn(ctx context.Context, user types.User, at time.Time) error
}

// SignUpParams carries validated sign-up input.
type SignUpParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// AccountService encapsulates account use-cases.
type AccountService struct {
	repo       UserRepository
	events     EventPublisher
	listCache  *cache.UserListCache
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAccountService constructs an AccountService. events and listCache may
// be nil when the broker or cache is not configured.
func NewAccountService(repo UserRepository, events EventPublisher, listCache *cache.UserListCache, bcryptCost int, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		repo:       repo,
		events:     events,
		listCache:  listCache,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// SignUp hashes the password and creates the account. The id is random,
// the role defaults to "user", and the account starts active with no
// recorded login. Duplicate usernames surface as store.ErrDuplicate.
func (s *AccountService) SignUp(ctx context.Context, params SignUpParams) (types.User, error) {
	hash, err := credentials.Hash(params.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("hash password failed", zap.String("username", params.Username), zap.Error(err))
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := types.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: &hash,
		DisplayName:  params.DisplayName,
		Role:         defaultUserRole,
		IsActive:     true,
		LastLogin:    nil,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return types.User{}, err
	}

	if s.events != nil {
		_ = s.events.AccountRegistered(ctx, user)
	}
	s.listCache.Invalidate(ctx)

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return user, nil
}

// Login verifies the credentials and stamps last_login on success. A wrong
// password and an unknown username both return ErrInvalidCredentials; an
// unreadable stored hash or a store fault propagates as-is.
func (s *AccountService) Login(ctx context.Context, username, password string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("login failed: unknown username", zap.String("username", username))
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, fmt.Errorf("fetch user: %w", err)
	}

	if user.PasswordHash == nil {
		s.logger.Error("account has no password hash",
			zap.String("user_id", user.ID.String()),
			zap.String("username", user.Username),
		)
		return types.User{}, ErrNoPassword
	}

	ok, err := credentials.Verify(*user.PasswordHash, password)
	if err != nil {
		s.logger.Error("password verification failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return types.User{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login failed: wrong password",
			zap.String("user_id", user.ID.String()),
			zap.String("username", user.Username),
		)
		return types.User{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return types.User{}, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	if s.events != nil {
		_ = s.events.AccountLoggedIn(ctx, user, now)
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return user, nil
}

// List returns the full user directory, serving from the cache when a
// fresh copy is available.
func (s *AccountService) List(ctx context.Context) ([]types.User, error) {
	if users, ok := s.listCache.Get(ctx); ok {
		return users, nil
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(ctx, users)
	return users, nil
}
