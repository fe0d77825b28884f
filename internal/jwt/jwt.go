// Package jwt 只读接口的访问令牌
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// Role 访问角色
type Role string

const (
	RolePlayer   Role = "player"   // 对局中的玩家，可见自己的手牌与协商
	RoleOperator Role = "operator" // 运维，可见完整状态
)

// Claims JWT 声明
type Claims struct {
	PlayerID string `json:"player_id,omitempty"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Service JWT 服务，令牌由网关签发，这里只校验
type Service struct {
	secretKey []byte
	issuer    string
}

// NewService 创建 JWT 服务
func NewService(secretKey string) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		issuer:    "settlers",
	}
}

// GenerateToken 签发令牌
func (s *Service) GenerateToken(playerID string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		PlayerID: playerID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken 校验令牌
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	switch claims.Role {
	case RoleOperator:
	case RolePlayer:
		if claims.PlayerID == "" {
			return nil, ErrTokenInvalid
		}
	default:
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
