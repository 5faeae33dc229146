package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword はパスワードのSHA-256ハッシュを64文字の小文字16進で返す。
// 既存データとの互換のためソルトは使わない。決定的なので
// ログイン照合はハッシュ値の等値比較で行える。
func HashPassword(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
