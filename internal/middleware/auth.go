package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sudooom.settlers/internal/jwt"
	appErrors "sudooom.settlers/pkg/errors"
	"sudooom.settlers/pkg/response"
)

const identityKey = "identity"

// Identity 调用方身份，零值为观众
type Identity struct {
	PlayerID string
	Operator bool
}

// Auth 可选认证：没有令牌按观众处理，带了无效令牌直接拒绝
// jwtService 为 nil 时不接受任何令牌
func Auth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			// 浏览器的 WebSocket 无法设置请求头
			token = c.Query("token")
		}
		if token == "" {
			c.Next()
			return
		}
		if jwtService == nil {
			response.Unauthorized(c, appErrors.ErrTokenInvalid)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, appErrors.ErrTokenExpired)
			} else {
				response.Unauthorized(c, appErrors.ErrTokenInvalid)
			}
			c.Abort()
			return
		}

		c.Set(identityKey, Identity{
			PlayerID: claims.PlayerID,
			Operator: claims.Role == jwt.RoleOperator,
		})
		c.Next()
	}
}

// extractToken 从 Authorization header 提取 token
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// GetIdentity 从 context 获取调用方身份
func GetIdentity(c *gin.Context) Identity {
	v, exists := c.Get(identityKey)
	if !exists {
		return Identity{}
	}
	id, _ := v.(Identity)
	return id
}
