package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/core/authctx"
	"github.com/delcom/travel-log/internal/core/domain"
	"github.com/delcom/travel-log/internal/core/ports"
)

// UserService implements registration, login and profile management.
type UserService struct {
	users  ports.UserRepository
	tokens ports.TokenRepository
	codec  ports.TokenCodec
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	codec ports.TokenCodec,
	hasher ports.PasswordHasher,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		log:    log,
		now:    time.Now,
	}
}

var _ ports.UserService = (*UserService)(nil)

func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	switch {
	case domain.Blank(name):
		return nil, domain.Invalid("name is required")
	case domain.Blank(email):
		return nil, domain.Invalid("email is required")
	case domain.Blank(password):
		return nil, domain.Invalid("password is required")
	}

	email = domain.NormalizeEmail(email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Save(ctx, domain.NewUser(name, email, hash, s.now()))
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("register: save user: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if domain.Blank(email) || domain.Blank(password) {
		return "", nil, domain.Invalid("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("login: lookup email: %w", err)
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.codec.Generate(user)
	if err != nil {
		return "", nil, fmt.Errorf("login: generate token: %w", err)
	}

	// Other sessions stay valid. Only a stale row for this exact token value
	// is replaced.
	if _, err := s.tokens.FindUserToken(ctx, user.ID, token); err == nil {
		if err := s.tokens.Delete(ctx, user.ID, token); err != nil {
			return "", nil, fmt.Errorf("login: drop stale session: %w", err)
		}
	} else if !errors.Is(err, domain.ErrSessionNotFound) {
		return "", nil, fmt.Errorf("login: lookup session: %w", err)
	}

	saved, err := s.tokens.Save(ctx, domain.NewAuthToken(user.ID, token, s.now()))
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to persist session token")
		return "", nil, fmt.Errorf("%w: %v", domain.ErrTokenNotPersisted, err)
	}
	if saved == nil {
		return "", nil, domain.ErrTokenNotPersisted
	}

	s.log.Info().Str("user_id", user.ID).Str("session_id", saved.ID).Msg("user logged in")
	return token, user, nil
}

func (s *UserService) CurrentUser(ctx context.Context) (*domain.User, error) {
	user := authctx.User(ctx)
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, name, email string) (*domain.User, error) {
	current := authctx.User(ctx)
	if current == nil {
		return nil, domain.ErrNotAuthenticated
	}
	switch {
	case domain.Blank(name):
		return nil, domain.Invalid("name is required")
	case domain.Blank(email):
		return nil, domain.Invalid("email is required")
	}

	user, err := s.users.FindByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: lookup user: %w", err)
	}

	email = domain.NormalizeEmail(email)
	if email != user.Email {
		owner, err := s.users.FindByEmail(ctx, email)
		switch {
		case err == nil && owner.ID != user.ID:
			return nil, domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrUserNotFound):
			return nil, fmt.Errorf("update profile: lookup email: %w", err)
		}
	}

	user.Name = domain.NormalizeName(name)
	user.Email = email
	user.Touch(s.now())

	updated, err := s.users.Save(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: save user: %w", err)
	}
	return updated, nil
}

func (s *UserService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	current := authctx.User(ctx)
	if current == nil {
		return domain.ErrNotAuthenticated
	}
	switch {
	case domain.Blank(oldPassword):
		return domain.Invalid("password is required")
	case domain.Blank(newPassword):
		return domain.Invalid("newPassword is required")
	}

	if !s.hasher.Matches(current.PasswordHash, oldPassword) {
		return domain.ErrWrongPassword
	}

	user, err := s.users.FindByID(ctx, current.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("change password: lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash password: %w", err)
	}
	user.PasswordHash = hash
	user.Touch(s.now())

	if _, err := s.users.Save(ctx, user); err != nil {
		return fmt.Errorf("change password: save user: %w", err)
	}
	if err := s.tokens.DeleteByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("change password: revoke sessions: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed, sessions revoked")
	return nil
}

func (s *UserService) Logout(ctx context.Context) error {
	sess, ok := authctx.FromContext(ctx)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if err := s.tokens.Delete(ctx, sess.User.ID, sess.Token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", sess.User.ID).Msg("user logged out")
	return nil
}
