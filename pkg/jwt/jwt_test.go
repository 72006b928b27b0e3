package jwt

import (
	"testing"
	"time"

	"github.com/erciktiburak/school-attendance-api/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		Issuer:    "SchoolAttendanceAPI",
		Audience:  "SchoolAttendanceClient",
		TokenTTL:  7 * 24 * time.Hour,
	})
}

func TestGenerateAndParseToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateToken("user-1", "admin", "admin@school.edu", "Admin")
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.Username != "admin" {
		t.Errorf("期望 Username=admin，实际=%s", claims.Username)
	}
	if claims.Email != "admin@school.edu" {
		t.Errorf("期望 Email=admin@school.edu，实际=%s", claims.Email)
	}
	if claims.Role != "Admin" {
		t.Errorf("期望 Role=Admin，实际=%s", claims.Role)
	}
	if claims.Issuer != "SchoolAttendanceAPI" {
		t.Errorf("期望 Issuer=SchoolAttendanceAPI，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	// 有效期约 7 天
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("TTL 期望约7天，实际=%v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret: "different-secret-key-for-unit-testing",
		Issuer:    "SchoolAttendanceAPI",
		Audience:  "SchoolAttendanceClient",
		TokenTTL:  time.Hour,
	})

	token, _ := m1.GenerateToken("user-1", "admin", "a@b.c", "Admin")
	if _, err := m2.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("不同密钥签名的 token 应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	m := newTestManager()
	other := NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		Issuer:    "SomeoneElse",
		Audience:  "SchoolAttendanceClient",
		TokenTTL:  time.Hour,
	})

	token, _ := other.GenerateToken("user-1", "admin", "a@b.c", "Admin")
	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("issuer 不符应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongAudience(t *testing.T) {
	m := newTestManager()
	other := NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		Issuer:    "SchoolAttendanceAPI",
		Audience:  "AnotherClient",
		TokenTTL:  time.Hour,
	})

	token, _ := other.GenerateToken("user-1", "admin", "a@b.c", "Admin")
	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("audience 不符应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		Issuer:    "SchoolAttendanceAPI",
		Audience:  "SchoolAttendanceClient",
		TokenTTL:  -time.Minute,
	})

	token, _ := m.GenerateToken("user-1", "admin", "a@b.c", "Admin")

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
