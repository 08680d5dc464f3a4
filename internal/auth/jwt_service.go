package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"swiftpolicy/internal/model"
)

// DefaultTokenExpiry is used when the service is built without a TTL.
const DefaultTokenExpiry = 24 * time.Hour

// Claims represents JWT claims for one session slot.
type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   model.Role        `json:"role"`
	Slot   model.SessionSlot `json:"slot"`
	jwt.RegisteredClaims
}

// Actor returns the identity the token was issued to.
func (c *Claims) Actor() model.Actor {
	return model.Actor{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// IsAdmin reports whether the token belongs to an administrator session.
func (c *Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin && c.Slot == model.SessionSlotAdmin
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService creates a new JWT service with the given secret.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL returns the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.ttl
}

// GenerateToken issues a signed token for user in slot. The token id is
// returned separately for revocation.
func (s *JWTService) GenerateToken(user *model.User, slot model.SessionSlot) (tokenID string, token string, err error) {
	tokenID = uuid.NewString()
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Slot:   slot,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = tokenObj.SignedString(s.secret)
	return tokenID, token, err
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Remaining returns how long the token stays valid, never negative.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
