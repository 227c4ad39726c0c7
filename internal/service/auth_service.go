package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"despatch-advice-service/internal/model"
	"despatch-advice-service/internal/repository"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

var (
	ErrMissingCredentials = errors.New("Email and password are required")
	ErrEmailInUse         = errors.New("Email already in-use")
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrRevokedToken       = errors.New("token has been revoked")
)

// AuthUser es lo que el middleware deja en el contexto.
type AuthUser struct {
	ID      string
	Email   string
	TokenID string
	Expires time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Servicio de autenticación local: usuarios en el repositorio, tokens HS256.
type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	// jti revocados por logout, con su expiración
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewAuthService(users UserRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		users:   users,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: map[string]time.Time{},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register crea el usuario y devuelve un token ya emitido.
func (a *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return "", ErrEmailInUse
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailInUse
		}
		return "", err
	}
	return a.IssueToken(u)
}

func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	u, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return a.IssueToken(u)
}

func (a *AuthService) IssueToken(u *model.User) (string, error) {
	now := a.now()
	claims := tokenClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Valida firma, expiración y que el token no haya sido revocado.
func (a *AuthService) ValidateToken(token string) (*AuthUser, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if a.isRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}

	user := &AuthUser{
		ID:      claims.Subject,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		user.Expires = claims.ExpiresAt.Time
	}
	return user, nil
}

// Logout revoca el token hasta su expiración natural.
func (a *AuthService) Logout(token string) error {
	user, err := a.ValidateToken(token)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[user.TokenID] = user.Expires
	a.pruneLocked()
	return nil
}

func (a *AuthService) isRevoked(jti string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.revoked[jti]
	return ok
}

// pruneLocked descarta los jti ya expirados; requiere a.mu.
func (a *AuthService) pruneLocked() {
	now := a.now()
	for id, exp := range a.revoked {
		if !exp.IsZero() && exp.Before(now) {
			delete(a.revoked, id)
		}
	}
}
