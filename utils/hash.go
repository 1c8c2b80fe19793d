package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"GeetaSaathi/config"
)

// HashPhone 加盐哈希，用作 redis 键和数据库查询条件，sha256(salt + ":" + phone)
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(config.Cfg.PhoneHashSalt + ":" + phone))
	return hex.EncodeToString(sum[:])
}
