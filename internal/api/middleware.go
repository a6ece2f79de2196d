package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/annel0/chase-arena/internal/auth"
)

const adminKeyHeader = "X-Admin-Key"

// corsMiddleware разрешает браузерному клиенту ходить с другого origin
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+adminKeyHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// bearerToken достаёт токен из Authorization или, для websocket, из ?token=
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if token := c.Query("token"); token != "" {
		return token, true
	}
	return "", false
}

// sessionAuthMiddleware проверяет, что токен выдан для сессии из пути
func (rs *RestServer) sessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := bearerToken(c)
		if !found {
			fail(c, http.StatusUnauthorized, "Отсутствует токен сессии")
			return
		}

		err := rs.tokens.Authorize(token, c.Param("id"))
		switch {
		case errors.Is(err, auth.ErrSessionMismatch):
			fail(c, http.StatusForbidden, "Токен выдан для другой сессии")
			return
		case err != nil:
			fail(c, http.StatusUnauthorized, "Недействительный токен")
			return
		}
		c.Next()
	}
}

// adminMiddleware сверяет X-Admin-Key с bcrypt-хешем из конфигурации.
// Без хеша админские маршруты отключены.
func (rs *RestServer) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rs.adminKeyHash == "" {
			fail(c, http.StatusForbidden, "Админский доступ отключён")
			return
		}
		if !auth.CheckKey(rs.adminKeyHash, c.GetHeader(adminKeyHeader)) {
			fail(c, http.StatusUnauthorized, "Неверный ключ администратора")
			return
		}
		c.Next()
	}
}
