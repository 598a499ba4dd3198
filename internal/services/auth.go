package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// AuthService issues and verifies vendor credentials
type AuthService struct {
	secret []byte
}

// NewAuthService creates the auth service. SECRET_KEY must be set in
// production; the default exists only so local development boots.
func NewAuthService() *AuthService {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = "inawo-dev-secret-change-me"
	}
	return &AuthService{secret: []byte(secret)}
}

// HashPassword hashes a plaintext password with bcrypt
func (a *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against its stored hash
func (a *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateToken issues a 24h HS256 access token for a vendor
func (a *AuthService) CreateToken(vendorID uint, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub": email,
		"id":  float64(vendorID),
		"exp": time.Now().Add(tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates a token and returns the vendor id it names
func (a *AuthService) ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("token missing vendor id")
	}
	return uint(id), nil
}

// NewReferralCode mints the short code vendors share with customers
func NewReferralCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "INW-" + raw[:6]
}
