package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lumen-store/internal/config"
	"github.com/lumen-store/internal/models"
	"github.com/lumen-store/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T, name string) (*AuthService, repository.AdminRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "admin-auth-test-secret", ExpireHours: 2},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		},
	}
	adminRepo := repository.NewAdminRepository(db)
	return NewAuthService(cfg, adminRepo), adminRepo
}

func createTestAdmin(t *testing.T, svc *AuthService, repo repository.AdminRepository, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: hash}
	if err := repo.Create(admin); err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return admin
}

func TestAdminLogin(t *testing.T) {
	svc, repo := setupAuthTest(t, "admin_login")
	created := createTestAdmin(t, svc, repo, "ops", "Abcdef12")

	admin, token, expiresAt, err := svc.Login("ops", "Abcdef12")
	if err != nil {
		t.Fatalf("login error: %v", err)
	}
	if admin.ID != created.ID {
		t.Fatalf("expected admin %d, got %d", created.ID, admin.ID)
	}
	if token == "" || expiresAt.Before(time.Now()) {
		t.Fatalf("expected valid token, got %q expiring %v", token, expiresAt)
	}
	if admin.LastLoginAt == nil {
		t.Fatalf("expected last login recorded")
	}

	if _, _, _, err := svc.Login("ops", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("ghost", "Abcdef12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown admin, got %v", err)
	}
}

func TestAdminJWTRoundTrip(t *testing.T) {
	svc, repo := setupAuthTest(t, "admin_jwt_roundtrip")
	admin := createTestAdmin(t, svc, repo, "ops", "Abcdef12")
	admin.IsSuper = true

	token, _, err := svc.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate token error: %v", err)
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" || !claims.IsSuper {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseJWT("not-a-token"); err == nil {
		t.Fatalf("expected malformed token to fail")
	}
}

func TestChangeAdminPassword(t *testing.T) {
	svc, repo := setupAuthTest(t, "admin_change_password")
	admin := createTestAdmin(t, svc, repo, "ops", "Abcdef12")

	if err := svc.ChangePassword(admin.ID, "wrong-old", "Newpass12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "Abcdef12", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := svc.ChangePassword(999, "Abcdef12", "Newpass12"); !errors.Is(err, ErrAdminNotFound) {
		t.Fatalf("expected ErrAdminNotFound, got %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "Abcdef12", "Newpass12"); err != nil {
		t.Fatalf("change password error: %v", err)
	}
	if _, _, _, err := svc.Login("ops", "Abcdef12"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, _, _, err := svc.Login("ops", "Newpass12"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
}

func TestPasswordPolicy(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		MinLength:     8,
		RequireUpper:  true,
		RequireLower:  true,
		RequireNumber: true,
	}
	for _, password := range []string{"Abc12", "abcdefg1", "ABCDEFG1", "Abcdefgh"} {
		if err := validatePassword(policy, password); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("password %q: expected ErrWeakPassword, got %v", password, err)
		}
	}
	if err := validatePassword(policy, "Abcdefg1"); err != nil {
		t.Fatalf("expected compliant password accepted, got %v", err)
	}
	// 空策略不限制
	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("expected empty policy to accept anything, got %v", err)
	}
}
