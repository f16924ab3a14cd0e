package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// 从环境变量获取JWT密钥，如果未设置则使用随机生成的密钥
// 在生产环境中，应确保设置了环境变量JWT_SECRET
var jwtSecret = getJWTSecret()

// getJWTSecret 从环境变量获取JWT密钥
// 如果环境变量未设置，则生成随机密钥（仅用于开发环境）
func getJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// 检查当前环境
		env := os.Getenv("ENV")
		if env == "production" {
			log.Fatal("在生产环境中必须设置JWT_SECRET环境变量")
		}

		// 在开发环境中，生成随机密钥
		log.Println("警告: JWT_SECRET环境变量未设置，将使用随机生成的密钥（仅用于开发环境）")

		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			log.Printf("生成随机密钥失败: %v，将使用备用密钥", err)
			return []byte("camp_finance_jwt_secret_key_for_development_only_do_not_use_in_production")
		}

		secret = base64.StdEncoding.EncodeToString(randomKey)
	}

	if len(secret) < 16 {
		log.Println("警告: JWT密钥长度不足，建议使用至少32字符的密钥")
	}

	return []byte(secret)
}

// AdminClaims 定义JWT令牌的声明结构
// 包含管理员的身份信息和标准JWT声明
type AdminClaims struct {
	AdminID              uint   `json:"admin_id"` // 管理员ID，用于身份识别
	Username             string `json:"username"` // 管理员用户名，用于日志和审计
	jwt.RegisteredClaims        // 嵌入标准JWT声明（如过期时间、签发时间等）
}

// GenerateToken 为指定的管理员生成签名的JWT令牌
// 参数:
//   - adminID: 管理员的唯一标识符
//   - username: 管理员的用户名
//   - duration: 令牌的有效期限
//
// 返回:
//   - string: 生成的JWT令牌字符串
//   - error: 如果令牌生成过程中发生错误
func GenerateToken(adminID uint, username string, duration time.Duration) (string, error) {
	expirationTime := time.Now().Add(duration)

	claims := AdminClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	// 创建令牌对象并使用HS256算法签名
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken 解析并验证JWT令牌
// 验证令牌的签名并提取其中的声明信息
func ParseToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("无效的签名方法")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的令牌")
}

// GetAdminIDFromToken 从Fiber上下文中获取管理员ID
// 优先使用认证中间件写入上下文的ID，否则从Authorization头解析
func GetAdminIDFromToken(c *fiber.Ctx) (uint, error) {
	adminID := c.Locals("admin_id")

	if id, ok := adminID.(uint); ok {
		return id, nil
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, errors.New("未提供授权令牌")
	}

	if len(authHeader) <= 7 || authHeader[:7] != "Bearer " {
		return 0, errors.New("无效的授权令牌格式")
	}

	claims, err := ParseToken(authHeader[7:])
	if err != nil {
		return 0, err
	}

	return claims.AdminID, nil
}
