package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token issuance lives in a separate auth service; this module only consumes
// bearer tokens.

func parseBearer(header, secret string) (jwt.MapClaims, bool) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return nil, false
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

// AuthGuard rejects requests without a valid bearer token carrying one of the
// allowed roles.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c.GetHeader("Authorization"), secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(allowedRoles) > 0 {
			role, _ := claims["role"].(string)
			match := false
			for _, r := range allowedRoles {
				if role == r {
					match = true
					break
				}
			}
			if !match {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set("claims", claims)
		c.Next()
	}
}

func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, "admin")
}

// UserAuth requires a valid user token and injects the userId into the
// context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromHeader(c.GetHeader("Authorization"), secret)
		if !ok || userID == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("userId", *userID)
		c.Next()
	}
}

// UserIDFromHeader extracts the userId claim from a bearer token. A missing
// header is not an error (guest flows); an invalid one is.
func UserIDFromHeader(header, secret string) (*primitive.ObjectID, bool) {
	if strings.TrimSpace(header) == "" {
		return nil, true
	}

	claims, ok := parseBearer(header, secret)
	if !ok {
		return nil, false
	}

	raw, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}

	userID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, false
	}
	return &userID, true
}
