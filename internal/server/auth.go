package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"explain-it/internal/game"
)

const (
	identityKey = "identity"
	roleAdmin   = "admin"
)

// tokenClaims is the bearer token issued by the account service.
type tokenClaims struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for id, valid until expires.
func SignToken(secret []byte, id game.Identity, expires time.Time) (string, error) {
	claims := tokenClaims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if id.Admin {
		claims.Role = roleAdmin
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *Server) parseToken(raw string) (game.Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return game.Identity{}, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return game.Identity{}, errors.New("token has no subject")
	}
	return game.Identity{
		ID:    claims.Subject,
		Name:  claims.Name,
		Admin: claims.Role == roleAdmin,
	}, nil
}

func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		id, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			s.log.Debug().Err(err).Msg("rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identityFrom(c).Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

func identityFrom(c *gin.Context) game.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		panic(fmt.Sprintf("identity missing on %s", c.FullPath()))
	}
	return value.(game.Identity)
}
