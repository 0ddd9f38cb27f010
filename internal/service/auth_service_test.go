package service

import (
	"context"
	"errors"
	"testing"

	"github.com/brightmart/inventory/internal/repository"
	"github.com/brightmart/inventory/internal/testutil"
	"go.uber.org/zap"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	return NewAuthService(repos, "test-secret", 30, zap.NewNop())
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash[:10] != "$argon2id$" {
		t.Errorf("hash %q is not argon2id encoded", hash[:10])
	}
	if !VerifyPassword("s3cret-password", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Error("wrong password should not verify")
	}
	if VerifyPassword("s3cret-password", "not-a-hash") {
		t.Error("malformed hash should not verify")
	}
}

func TestSignupNormalizesEmail(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "  Clerk@Example.COM ", "password123")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "clerk@example.com" {
		t.Errorf("email = %s, want clerk@example.com", user.Email)
	}

	// 大小写与空格变体都算同一邮箱
	_, err = svc.Signup(ctx, "CLERK@example.com", "password456")
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate signup error = %v, want ErrDuplicateKey", err)
	}
}

func TestSignupRejectsWeakInput(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	var validationErr *ValidationError
	if _, err := svc.Signup(ctx, "clerk@example.com", "short"); !errors.As(err, &validationErr) {
		t.Errorf("short password error = %v, want ValidationError", err)
	}
	if _, err := svc.Signup(ctx, "not-an-email", "password123"); !errors.As(err, &validationErr) {
		t.Errorf("bad email error = %v, want ValidationError", err)
	}
}

func TestAuthenticateDoesNotLeakFailureReason(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "clerk@example.com", "password123"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	// 未知邮箱与错误密码都返回 nil 用户、nil 错误
	user, err := svc.Authenticate(ctx, "nobody@example.com", "password123")
	if err != nil || user != nil {
		t.Errorf("unknown email: user=%v err=%v, want nil,nil", user, err)
	}
	user, err = svc.Authenticate(ctx, "clerk@example.com", "wrong-password")
	if err != nil || user != nil {
		t.Errorf("wrong password: user=%v err=%v, want nil,nil", user, err)
	}

	user, err = svc.Authenticate(ctx, "Clerk@Example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user == nil {
		t.Fatal("valid credentials should authenticate")
	}
}

func TestTokenRoundTripRevalidatesUser(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "clerk@example.com", "password123")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	token, _, err := svc.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	parsed, err := svc.ParseToken(ctx, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed.ID != user.ID {
		t.Errorf("parsed user = %s, want %s", parsed.ID, user.ID)
	}

	// 停用账号后即使令牌未过期也拒绝
	user.IsActive = false
	if err := svc.repos.User.Update(ctx, user); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}
	if _, err := svc.ParseToken(ctx, token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("deactivated user token error = %v, want ErrUnauthorized", err)
	}

	if _, err := svc.ParseToken(ctx, "garbage.token.here"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("garbage token error = %v, want ErrUnauthorized", err)
	}
}

func TestBootstrapAdminIsIdempotent(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	if err := svc.BootstrapAdmin(ctx, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if err := svc.BootstrapAdmin(ctx, "admin@example.com", "admin-password"); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	admin, err := svc.repos.User.FindByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if !admin.IsAdmin || !admin.IsActive {
		t.Error("bootstrap admin should be active and admin")
	}

	// 未配置时跳过
	if err := svc.BootstrapAdmin(ctx, "", ""); err != nil {
		t.Errorf("unconfigured bootstrap should be a no-op, got %v", err)
	}
}
