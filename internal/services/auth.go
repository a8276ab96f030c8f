package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/repos"
	"github.com/vistascan/vistascan-backend/internal/types"
)

type UserDTO struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	Birthdate time.Time      `json:"birthdate"`
	Gender    types.Gender   `json:"gender"`
	Role      types.UserRole `json:"role"`
}

type RegisterRequest struct {
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	FullName  string         `json:"full_name"`
	Birthdate string         `json:"birthdate"`
	Gender    types.Gender   `json:"gender"`
	Role      types.UserRole `json:"role"`
}

type AuthResponse struct {
	User        UserDTO `json:"user"`
	AccessToken string  `json:"access_token"`
}

type TokenClaims struct {
	UserID uuid.UUID
	Role   types.UserRole
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	ParseToken(tokenString string) (*TokenClaims, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", types.ErrValidation)
	}

	birthdate, err := time.Parse("2006-01-02", req.Birthdate)
	if err != nil {
		return nil, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", types.ErrValidation)
	}

	role := req.Role
	if role == "" {
		role = types.RolePatient
	}
	switch role {
	case types.RoleAdmin, types.RolePatient, types.RoleExpert:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", types.ErrValidation, req.Role)
	}

	if existing, err := as.userRepo.GetByEmail(ctx, nil, email); err != nil {
		return nil, fmt.Errorf("%w: failed to check email: %v", types.ErrDependency, err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: email %s", types.ErrAlreadyExists, email)
	}
	if existing, err := as.userRepo.GetByUsername(ctx, nil, username); err != nil {
		return nil, fmt.Errorf("%w: failed to check username: %v", types.ErrDependency, err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username %s", types.ErrAlreadyExists, username)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %v", types.ErrDependency, err)
	}

	user := &types.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		FullName:  strings.TrimSpace(req.FullName),
		Birthdate: birthdate,
		Gender:    req.Gender,
		Role:      role,
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		as.log.Error("Failed to create user", "username", username, "error", err)
		return nil, fmt.Errorf("%w: failed to create user: %v", types.ErrDependency, err)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	as.log.Info("User registered", "user_id", user.ID, "role", user.Role)
	return &AuthResponse{User: toUserDTO(user), AccessToken: token}, nil
}

func (as *authService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	user, err := as.userRepo.GetByUsername(ctx, nil, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load user: %v", types.ErrDependency, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid username or password", types.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", types.ErrUnauthorized)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	as.log.Info("User logged in", "user_id", user.ID)
	return &AuthResponse{User: toUserDTO(user), AccessToken: token}, nil
}

func (as *authService) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", types.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid token claims", types.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject claim", types.ErrUnauthorized)
	}
	roleStr, _ := claims["role"].(string)
	return &TokenClaims{UserID: userID, Role: types.UserRole(roleStr)}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(as.accessTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign token: %v", types.ErrDependency, err)
	}
	return signed, nil
}

func toUserDTO(user *types.User) UserDTO {
	return UserDTO{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Birthdate: user.Birthdate,
		Gender:    user.Gender,
		Role:      user.Role,
	}
}
