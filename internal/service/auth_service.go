package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"assetverse/internal/model"
	"assetverse/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for request validation
type RegisterHRRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	CompanyName string `json:"company_name" binding:"required"`
	CompanyLogo string `json:"company_logo" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
}

type RegisterEmployeeRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profile_image"`
	DateOfBirth  string `json:"date_of_birth"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Claims are what the middleware trusts about the caller.
type Claims struct {
	Email   string `json:"email"`
	Role    string `json:"role"`
	Company string `json:"company,omitempty"`
	jwt.RegisteredClaims
}

// AuthService registers accounts, verifies credentials and issues tokens
type AuthService interface {
	RegisterHR(ctx context.Context, req RegisterHRRequest) (*AuthResponse, error)
	RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, email string, req UpdateProfileRequest) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(users repository.UserRepository, secret []byte, ttl time.Duration) AuthService {
	return &authService{users: users, secret: secret, ttl: ttl, now: time.Now}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

func parseDate(raw string) (*time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("date_of_birth must be YYYY-MM-DD")
}

func (s *authService) RegisterHR(ctx context.Context, req RegisterHRRequest) (*AuthResponse, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if req.CompanyName == "" {
		return nil, invalid("company name is required")
	}
	user := &model.User{
		Name:          req.Name,
		Email:         strings.ToLower(req.Email),
		Role:          model.RoleHR,
		DateOfBirth:   dob,
		ProfileImage:  req.CompanyLogo,
		CompanyName:   req.CompanyName,
		CompanyLogo:   req.CompanyLogo,
		CapacityLimit: model.DefaultCapacityLimit,
		Subscription:  model.DefaultSubscription,
	}
	return s.register(ctx, user, req.Password)
}

func (s *authService) RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (*AuthResponse, error) {
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		Role:         model.RoleEmployee,
		DateOfBirth:  dob,
		ProfileImage: model.DefaultProfileImage,
	}
	return s.register(ctx, user, req.Password)
}

func (s *authService) register(ctx context.Context, user *model.User, password string) (*AuthResponse, error) {
	if user.Name == "" {
		return nil, invalid("name is required")
	}
	if !emailRegex.MatchString(user.Email) {
		return nil, invalid("invalid email format")
	}
	if len(password) < 6 {
		return nil, invalid("password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, conflict("email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: *user}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: *user}, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email:   user.Email,
		Role:    user.Role,
		Company: user.CompanyName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func (s *authService) Me(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookup(err, "user not found")
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, email string, req UpdateProfileRequest) (*model.User, error) {
	fields := map[string]interface{}{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.ProfileImage != "" {
		fields["profile_image"] = req.ProfileImage
	}
	if req.DateOfBirth != "" {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		fields["date_of_birth"] = dob
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return nil, lookup(err, "user not found")
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, email, fields); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.Me(ctx, email)
}
