package internal

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const cookieName = "contest_token"

type claims struct {
	UserID int    `json:"uid"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// tokenFromRequest accepts either the auth cookie (web) or a bearer token
// (mobile). Both carry the same JWT.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	tok, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return tok
}

func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}

		tok, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad token"})
			return
		}

		cl, ok := tok.Claims.(*claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad claims"})
			return
		}

		c.Set("actor", Actor{ID: cl.UserID, Role: cl.Role, Email: cl.Email})
		c.Next()
	}
}

// RequireRole gates a route group to a single role. Role checks inside
// handlers are only for ownership, never for role dispatch.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor(c).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": role + " role required"})
			return
		}
		c.Next()
	}
}

func actor(c *gin.Context) Actor {
	v, _ := c.Get("actor")
	a, _ := v.(Actor)
	return a
}
