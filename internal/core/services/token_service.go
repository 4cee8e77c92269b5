package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService is the interface to the external auth collaborator: it only
// verifies tokens minted elsewhere and extracts the caller's identity.
// Registration, passwords and sessions live outside this service.
type TokenService struct {
	secretKey     []byte
	issuer        string
	tokenDuration time.Duration
}

func NewTokenService(secretKey string, issuer string, tokenDuration time.Duration) *TokenService {
	return &TokenService{
		secretKey:     []byte(secretKey),
		issuer:        issuer,
		tokenDuration: tokenDuration,
	}
}

// Claims carried by a goaltrack token: the person id and their homeschool.
type TokenClaims struct {
	PersonID     string
	HomeschoolID string
}

// GenerateToken mints a signed token. Used by tooling and tests; production
// tokens come from the auth collaborator with the same secret and issuer.
func (s *TokenService) GenerateToken(personID, homeschoolID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": personID,
		"hs":  homeschoolID,
		"exp": time.Now().Add(s.tokenDuration).Unix(),
		"iat": time.Now().Unix(),
		"iss": s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("token service: failed to sign token: %w", err)
	}

	return signedToken, nil
}

func (s *TokenService) ValidateToken(tokenString string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return TokenClaims{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, fmt.Errorf("invalid token claims")
	}

	if iss, ok := claims["iss"].(string); !ok || iss != s.issuer {
		return TokenClaims{}, fmt.Errorf("invalid token issuer")
	}

	personID, ok := claims["sub"].(string)
	if !ok || personID == "" {
		return TokenClaims{}, fmt.Errorf("invalid token subject")
	}

	homeschoolID, ok := claims["hs"].(string)
	if !ok || homeschoolID == "" {
		return TokenClaims{}, fmt.Errorf("missing homeschool claim")
	}

	return TokenClaims{PersonID: personID, HomeschoolID: homeschoolID}, nil
}
