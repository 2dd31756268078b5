package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/news-publishing-api/internal/models"
)

// ActorKey is the context key for the authenticated actor
const ActorKey = "actor"

var errInvalidToken = errors.New("invalid token")

// Authenticator verifies HMAC-signed bearer tokens issued by the identity
// provider. The token subject becomes the actor's user ID.
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates an Authenticator. An empty issuer accepts any.
func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

// Actor verifies raw and returns the actor it identifies
func (a *Authenticator) Actor(raw string) (models.Actor, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return models.Actor{}, err
	}
	if !token.Valid || claims.Subject == "" {
		return models.Actor{}, errInvalidToken
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return models.Actor{}, errInvalidToken
	}
	return models.Actor{UserID: claims.Subject}, nil
}

// Sign issues a token for userID valid for ttl
func (a *Authenticator) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate resolves the actor from an optional bearer token. Requests
// without a token continue anonymously; a malformed or expired token is
// rejected.
func Authenticate(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(ActorKey, models.Anonymous())
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header must use the Bearer scheme"})
			return
		}

		actor, err := auth.Actor(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequireActor rejects anonymous requests
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetActor(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// GetActor retrieves the actor from the gin context
func GetActor(c *gin.Context) models.Actor {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Anonymous()
}
