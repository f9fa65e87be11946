package services

import (
	"context"
	"errors"

	"github.com/crowdfund/apiserver/internal/store"
	"github.com/crowdfund/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrAuthFailed is returned for any credential mismatch on login.
// Unknown email and wrong password are deliberately indistinguishable
// so the API never reveals which emails are registered.
var ErrAuthFailed = errors.New("auth failed")

const bcryptCost = 10

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates signup and login.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Signup hashes the raw password and persists the account. The raw
// password is neither stored nor logged. A duplicate email surfaces
// as store.ErrDuplicateEmail from the unique index.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (types.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
	})
}

// Login verifies the credentials and returns the account. Both an
// unknown email and a failed password comparison return ErrAuthFailed.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrAuthFailed
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrAuthFailed
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
