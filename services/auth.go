package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/CrowderSoup/lists-app/database"
)

const (
	MinPasswordLength = 6
	tokenLifetime     = 7 * 24 * time.Hour
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail       = errors.New("invalid email address")
)

// Claims is what a verified token says about its bearer
type Claims struct {
	UID   string
	Email string
}

type AuthService struct {
	users     *database.UserStore
	jwtSecret []byte
}

func NewAuthService(users *database.UserStore, jwtSecret string) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
}

// SignUp creates an account and returns a token for it
func (s *AuthService) SignUp(email, password string) (string, Claims, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", Claims{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return "", Claims{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.users.CreateUser(email, string(hash))
	if errors.Is(err, database.ErrUserExists) {
		return "", Claims{}, ErrAccountExists
	}
	if err != nil {
		return "", Claims{}, err
	}
	return s.issue(Claims{UID: u.UID, Email: u.Email})
}

// SignIn checks the password and returns a token
func (s *AuthService) SignIn(email, password string) (string, Claims, error) {
	u, err := s.users.GetUserByEmail(email)
	if errors.Is(err, database.ErrNotFound) {
		return "", Claims{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Claims{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", Claims{}, ErrInvalidCredentials
	}
	return s.issue(Claims{UID: u.UID, Email: u.Email})
}

func (s *AuthService) issue(c Claims) (string, Claims, error) {
	token, err := s.CreateJWT(c)
	if err != nil {
		return "", Claims{}, err
	}
	return token, c, nil
}

// CreateJWT generates a JWT token for a user
func (s *AuthService) CreateJWT(c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   c.UID,
		"email": c.Email,
		"exp":   time.Now().Add(tokenLifetime).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyJWT verifies a JWT token and returns its claims
func (s *AuthService) VerifyJWT(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}

	uid, err := claims.GetSubject()
	if err != nil || uid == "" {
		return Claims{}, errors.New("subject claim missing")
	}
	email, _ := claims["email"].(string)

	return Claims{UID: uid, Email: email}, nil
}
