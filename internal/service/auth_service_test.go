package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/repository"
)

// Mock user repository for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)

	user, err := svc.Register(context.Background(), "seller@kantin.local", "password123", "Bu Siti", domain.RoleSeller)
	if err != nil {
		t.Fatal(err)
	}

	if user.PasswordHash == "password123" {
		t.Error("password must not be stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")); err != nil {
		t.Error("stored hash does not verify against the password")
	}
	if user.Role != domain.RoleSeller {
		t.Errorf("expected seller role, got %q", user.Role)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)

	if _, err := svc.Register(context.Background(), "seller@kantin.local", "pw", "A", domain.RoleSeller); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(context.Background(), "seller@kantin.local", "pw", "B", domain.RoleSeller)
	if !errors.Is(err, repository.ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestRegisterDefaultsUnknownRoleToSeller(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)

	user, err := svc.Register(context.Background(), "x@kantin.local", "pw", "X", "superuser")
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != domain.RoleSeller {
		t.Errorf("unknown role must default to seller, got %q", user.Role)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)

	registered, err := svc.Register(context.Background(), "admin@kantin.local", "hunter22", "Admin", domain.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	token, user, err := svc.Login(context.Background(), "admin@kantin.local", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != registered.ID {
		t.Error("login returned the wrong user")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != registered.ID || claims.Role != domain.RoleAdmin {
		t.Errorf("claims do not match user: %+v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)

	svc.Register(context.Background(), "seller@kantin.local", "right", "A", domain.RoleSeller)

	if _, _, err := svc.Login(context.Background(), "seller@kantin.local", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@kantin.local", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestValidateTokenRejectsForgedToken(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo, "secret", time.Hour)
	other := NewAuthService(repo, "other-secret", time.Hour)

	svc.Register(context.Background(), "seller@kantin.local", "pw", "A", domain.RoleSeller)
	token, _, err := other.Login(context.Background(), "seller@kantin.local", "pw")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}
