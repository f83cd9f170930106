package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 session tokens that carry the user id.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *JWTService) GenerateToken(userID primitive.ObjectID) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken checks signature and expiry and returns the user id claim.
func (s *JWTService) ValidateToken(tokenStr string) (primitive.ObjectID, error) {
	if tokenStr == "" {
		return primitive.NilObjectID, unauthenticated("Not authorized, no token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, unauthenticated("Token has expired")
		}
		return primitive.NilObjectID, unauthenticated("Not authorized, token failed")
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, unauthenticated("Not authorized, token failed")
	}
	return id, nil
}
