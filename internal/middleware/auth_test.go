package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"sudooom.settlers/internal/jwt"
)

func setupAuthRouter(svc *jwt.Service, seen *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(svc))
	r.GET("/who", func(c *gin.Context) {
		*seen = GetIdentity(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuth(t *testing.T) {
	svc := jwt.NewService("test-secret")
	playerToken, _ := svc.GenerateToken("B", jwt.RolePlayer, time.Hour)
	operatorToken, _ := svc.GenerateToken("", jwt.RoleOperator, time.Hour)
	expiredToken, _ := svc.GenerateToken("B", jwt.RolePlayer, -time.Minute)

	tests := []struct {
		name   string
		header string
		query  string
		code   int
		want   Identity
	}{
		{"anonymous is spectator", "", "", http.StatusOK, Identity{}},
		{"player header", "Bearer " + playerToken, "", http.StatusOK, Identity{PlayerID: "B"}},
		{"player query", "", playerToken, http.StatusOK, Identity{PlayerID: "B"}},
		{"operator", "Bearer " + operatorToken, "", http.StatusOK, Identity{Operator: true}},
		{"garbage token", "Bearer nope", "", http.StatusUnauthorized, Identity{}},
		{"expired token", "Bearer " + expiredToken, "", http.StatusUnauthorized, Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen Identity
			r := setupAuthRouter(svc, &seen)

			url := "/who"
			if tt.query != "" {
				url += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestAuthDisabledRejectsTokens(t *testing.T) {
	var seen Identity
	r := setupAuthRouter(nil, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	token, _ := jwt.NewService("any").GenerateToken("A", jwt.RolePlayer, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
