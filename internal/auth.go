package internal

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func Register(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			Password  string `json:"password"`
			Password2 string `json:"password2"`
			Role      string `json:"role"` // user|designer, immutable afterwards
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}
		if req.Username == "" || req.Email == "" || req.Password == "" || req.Password2 == "" {
			c.JSON(400, gin.H{"error": "fill all fields"})
			return
		}
		if !strings.Contains(req.Email, "@") {
			c.JSON(400, gin.H{"error": "invalid email"})
			return
		}
		if req.Password != req.Password2 {
			c.JSON(400, gin.H{"error": "passwords do not match"})
			return
		}
		if len(req.Password) < 6 {
			c.JSON(400, gin.H{"error": "password too short"})
			return
		}
		if req.Role != RoleUser && req.Role != RoleDesigner {
			c.JSON(400, gin.H{"error": "role must be user or designer"})
			return
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), 10)

		var id int
		err := db.QueryRow(context.Background(),
			"INSERT INTO users(username, email, pass_hash, role) VALUES ($1,$2,$3,$4) RETURNING id",
			req.Username, req.Email, string(hash), req.Role,
		).Scan(&id)
		if err != nil {
			c.JSON(409, gin.H{"error": "username or email already exists"})
			return
		}
		logAction(db, &id, "register", "role="+req.Role)
		c.JSON(200, gin.H{"ok": true})
	}
}

func Login(db *pgxpool.Pool, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": "bad json"})
			return
		}

		var u User
		var passHash string
		err := db.QueryRow(context.Background(),
			"SELECT id, username, email, role, pass_hash FROM users WHERE email=$1",
			req.Email,
		).Scan(&u.ID, &u.Username, &u.Email, &u.Role, &passHash)
		if err != nil {
			c.JSON(401, gin.H{"error": "invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(passHash), []byte(req.Password)) != nil {
			c.JSON(401, gin.H{"error": "invalid credentials"})
			return
		}

		s, err := signToken(secret, u)
		if err != nil {
			c.JSON(500, gin.H{"error": "token"})
			return
		}

		secure := os.Getenv("COOKIE_SECURE") == "1"
		c.SetCookie(cookieName, s, 86400, "/", "", secure, true)

		logAction(db, &u.ID, "login", "success")
		// token also returned in the body for bearer-style clients
		c.JSON(200, gin.H{"ok": true, "token": s, "user": u})
	}
}

func signToken(secret string, u User) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: u.ID,
		Role:   u.Role,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "contest-platform",
		},
	})
	return tok.SignedString([]byte(secret))
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(cookieName, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func Me(db *pgxpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		a := actor(c)
		var u User
		err := db.QueryRow(context.Background(),
			"SELECT id, username, email, role FROM users WHERE id=$1", a.ID,
		).Scan(&u.ID, &u.Username, &u.Email, &u.Role)
		if err != nil {
			c.JSON(500, gin.H{"error": "db"})
			return
		}
		c.JSON(200, u)
	}
}
