// Package password 封装口令哈希。
//
// 新口令统一使用 bcrypt。旧系统遗留的 base64(sha256(口令)) 无盐哈希仍可校验，
// 以便迁移来的账号能够登录；调用方应在校验通过后用 NeedsRehash 判断并重新哈希。
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hash 生成 bcrypt 哈希
func Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify 校验口令是否与哈希匹配
func Verify(plain, hash string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	}
	legacy := legacyHash(plain)
	return subtle.ConstantTimeCompare([]byte(legacy), []byte(hash)) == 1
}

// NeedsRehash 哈希是否为遗留格式
func NeedsRehash(hash string) bool {
	return !isBcrypt(hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func legacyHash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.StdEncoding.EncodeToString(sum[:])
}
