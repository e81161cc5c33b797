package records

import (
	"context"
	"fmt"
	"time"

	"github.com/katatrina/backoffice-BE/internal/fallback"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

// UserService manages the profiles kept next to the authentication
// accounts. Profiles are keyed by uid and only exist remotely.
type UserService struct {
	coll    remote.Collection[model.User]
	timeout time.Duration
	clock   func() time.Time
}

func NewUserService(coll remote.Collection[model.User], timeouts Timeouts) *UserService {
	timeout := timeouts.Remote
	if timeout <= 0 {
		timeout = fallback.DefaultTimeout
	}
	return &UserService{coll: coll, timeout: timeout, clock: time.Now}
}

func (s *UserService) configured() error {
	if s.coll == nil {
		return fmt.Errorf("%s: %w", CollectionUsers, remote.ErrNotConfigured)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, uid string) (model.User, error) {
	if err := s.configured(); err != nil {
		return model.User{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.coll.Get(ctx, uid)
	if err != nil {
		return user, err
	}
	user.ID = uid
	return user, nil
}

func (s *UserService) List(ctx context.Context, role model.UserRole) ([]model.User, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := remote.Query{OrderBy: "nome"}
	if role != "" {
		q = q.Where("role", remote.OpEqual, string(role))
	}
	return s.coll.List(ctx, q)
}

// SaveProfile creates or replaces the profile of uid.
func (s *UserService) SaveProfile(ctx context.Context, uid string, user model.User) (model.User, error) {
	if err := s.configured(); err != nil {
		return user, err
	}
	if err := fallback.Validate(&user); err != nil {
		return user, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if existing, err := s.coll.Get(ctx, uid); err == nil {
		user.CreatedAt = existing.CreatedAt
	}
	user.ID = uid
	user.Stamp(s.clock())

	if err := s.coll.Set(ctx, uid, user); err != nil {
		return user, fmt.Errorf("failed to save user profile: %w", err)
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, uid string) error {
	if err := s.configured(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.coll.Delete(ctx, uid)
}
