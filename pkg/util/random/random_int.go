package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GetLenRandomString 生成指定长度的小写字母数字随机串（用于机器人 ID 等短标识）
func GetLenRandomString(length int) string {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return string(result)
}

// GetNowAndLenRandomString 生成带时间戳前缀的随机字符串（用于用户 ID）
// 格式: YYMMDD + 字母数字混合
// 示例: 241230abcde12345
func GetNowAndLenRandomString(length int) string {
	return time.Now().Format("060102") + GetLenRandomString(length)
}
