package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/490273789/llmops-api/internal/config"
	apperrors "github.com/490273789/llmops-api/internal/pkg/errors"
)

const localsAccountID = "accountID"

// Claims are the bearer token claims
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens
type Authenticator struct {
	secret []byte
	issuer string
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

// Issue signs a token for accountID
func (a *Authenticator) Issue(accountID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		AccountID: accountID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    a.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse validates a token and returns the account it was issued for
func (a *Authenticator) Parse(tokenString string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("invalid or expired token").WithError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, apperrors.Unauthorized("invalid token")
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("invalid account id in token")
	}
	return accountID, nil
}

// Require rejects requests without a valid bearer token
func (a *Authenticator) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return apperrors.Unauthorized("authorization header required")
		}

		accountID, err := a.Parse(token)
		if err != nil {
			return err
		}

		c.Locals(localsAccountID, accountID)
		return c.Next()
	}
}

// Optional lets anonymous requests through. A token that is present must
// still be valid.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Next()
		}

		accountID, err := a.Parse(token)
		if err != nil {
			return err
		}

		c.Locals(localsAccountID, accountID)
		return c.Next()
	}
}

// extractBearerToken extracts the token from the Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// GetAccountID gets the authenticated account from context
func GetAccountID(c *fiber.Ctx) (uuid.UUID, bool) {
	accountID, ok := c.Locals(localsAccountID).(uuid.UUID)
	return accountID, ok
}
