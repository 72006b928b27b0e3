package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// 认证中间件写入 gin.Context 的键
const (
	CtxUserID   = "user_id"
	CtxRole     = "role"
	CtxTokenID  = "token_id"
	CtxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxUserID)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, CtxRole)
}

// TokenInfo 当前请求 Token 的 JTI 与过期时间，供注销使用
func TokenInfo(c *gin.Context) (string, time.Time, bool) {
	jti, ok := mustGetString(c, CtxTokenID)
	if !ok {
		return "", time.Time{}, false
	}
	exp, _ := c.Get(CtxTokenExp)
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "Unauthorized")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Unauthorized")
		return "", false
	}
	return s, true
}

// pathID 读取路径参数中的 UUID
// 格式非法的 ID 不可能对应任何记录，直接按 notFound 响应，调用方应在 ok=false 时直接 return
func pathID(c *gin.Context, name string, notFound error) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		respondError(c, notFound)
		return "", false
	}
	return id, true
}
