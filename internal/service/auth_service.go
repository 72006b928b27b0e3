package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/erciktiburak/school-attendance-api/internal/dto"
	"github.com/erciktiburak/school-attendance-api/internal/model"
	"github.com/erciktiburak/school-attendance-api/internal/repository"
	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
	"github.com/erciktiburak/school-attendance-api/pkg/jwt"
	"github.com/erciktiburak/school-attendance-api/pkg/password"
)

// ── 认证模块业务错误 ──

var (
	ErrUsernameExists     = pkgerrors.New(pkgerrors.KindConflict, 11001, "Username already exists")
	ErrEmailExists        = pkgerrors.New(pkgerrors.KindConflict, 11002, "Email already exists")
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.KindUnauthorized, 11003, "Invalid username or password")
	ErrInvalidRole        = pkgerrors.New(pkgerrors.KindValidation, 11004, "Invalid role")
	ErrUserNotFound       = pkgerrors.New(pkgerrors.KindNotFound, 11005, "User not found")
)

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	// Logout 将 Token 的 JTI 加入黑名单直至过期；未接入 Redis 时为空操作
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	// SeedDefaultUsers 账号表为空时创建默认管理员与教师账号
	SeedDefaultUsers(ctx context.Context) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	role := model.RoleStudent
	if req.Role != "" {
		r, ok := model.ParseRole(req.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		role = r
	}

	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户名失败", zap.Error(err))
		return nil, err
	}

	exists, err := s.repo.User.ExistsByEmail(ctx, req.Email)
	if err != nil {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		s.logger.Error("口令哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		// 并发注册由唯一索引兜底；TranslateError 后约束名已丢失，回查邮箱区分冲突列
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if taken, qerr := s.repo.User.ExistsByEmail(ctx, req.Email); qerr == nil && taken {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID), zap.String("role", string(role)))
	return s.issueToken(user)
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// 遗留的无盐哈希在登录成功后升级为 bcrypt，失败不影响登录
	if password.NeedsRehash(user.PasswordHash) {
		if hash, err := password.Hash(req.Password); err == nil {
			if err := s.repo.User.UpdatePasswordHash(ctx, user.UserID, hash); err != nil {
				s.logger.Warn("升级口令哈希失败", zap.String("user_id", user.UserID), zap.Error(err))
			}
		}
	}

	return s.issueToken(user)
}

func (s *authService) issueToken(user *model.User) (*dto.LoginResponse, error) {
	token, err := s.jwtMgr.GenerateToken(user.UserID, user.Username, user.Email, string(user.Role))
	if err != nil {
		s.logger.Error("生成 Token 失败", zap.Error(err))
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: int(s.jwtMgr.TTL().Seconds()),
		User:      *toUserResponse(user),
	}, nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Seed ──────────────────────

type seedUser struct {
	username, email, password string
	role                      model.Role
}

var defaultUsers = []seedUser{
	{"admin", "admin@emu.edu.tr", "admin123", model.RoleAdmin},
	{"teacher1", "teacher@emu.edu.tr", "teacher123", model.RoleTeacher},
}

func (s *authService) SeedDefaultUsers(ctx context.Context) error {
	count, err := s.repo.User.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, u := range defaultUsers {
		hash, err := password.Hash(u.password)
		if err != nil {
			return err
		}
		user := &model.User{Username: u.username, Email: u.email, PasswordHash: hash, Role: u.role}
		if err := s.repo.User.Create(ctx, user); err != nil {
			return err
		}
		s.logger.Warn("已创建默认账号，请尽快修改密码", zap.String("username", u.username))
	}
	return nil
}
