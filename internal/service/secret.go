package service

import (
	"crypto/sha256"
	"encoding/base64"
)

// hashSharedSecret 產生與 IdentityServer Sha256() 相同格式的雜湊值
func hashSharedSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.StdEncoding.EncodeToString(sum[:])
}
