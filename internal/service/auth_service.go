package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightmart/inventory/internal/entity"
	"github.com/brightmart/inventory/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

// argon2id 参数
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AuthService 注册、登录与令牌签发
type AuthService struct {
	repos         *repository.Repositories
	jwtSecret     []byte
	expireMinutes int
	logger        *zap.Logger
}

func NewAuthService(repos *repository.Repositories, jwtSecret string, expireMinutes int, logger *zap.Logger) *AuthService {
	if expireMinutes <= 0 {
		expireMinutes = 30
	}
	return &AuthService{
		repos:         repos,
		jwtSecret:     []byte(jwtSecret),
		expireMinutes: expireMinutes,
		logger:        logger,
	}
}

// HashPassword 生成 $argon2id$ 编码的哈希
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
	return encoded, nil
}

// VerifyPassword 常数时间比较
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// normalizeEmail 小写并去首尾空白
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup 注册。邮箱统一小写去空格存储，重复邮箱返回 ErrDuplicateKey。
func (s *AuthService) Signup(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "is required"}
	}
	if !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", translateGorm(err))
	}
	return user, nil
}

// Authenticate 校验凭据。邮箱未知、账号停用或密码不符时统一返回 nil，
// 不区分失败原因。
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	user, err := s.repos.User.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}

// IssueToken 签发 HS256 访问令牌，sub 为邮箱，附带 user_id
func (s *AuthService) IssueToken(user *entity.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.expireMinutes) * time.Minute)
	claims := jwt.MapClaims{
		"sub":     user.Email,
		"user_id": user.ID,
		"iat":     time.Now().Unix(),
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken 验证令牌并返回对应的活跃用户
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (*entity.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.repos.User.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// BootstrapAdmin 幂等创建管理员账号，邮箱或密码未配置时跳过
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.repos.User.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.repos.User.Create(ctx, admin); err != nil {
		if errors.Is(translateGorm(err), ErrDuplicateKey) {
			return nil
		}
		return err
	}
	s.logger.Info("admin account created", zap.String("email", email))
	return nil
}
