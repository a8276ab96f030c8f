package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/repos"
	"github.com/vistascan/vistascan-backend/internal/types"
)

type UpdateUserRequest struct {
	Username  *string         `json:"username,omitempty"`
	Email     *string         `json:"email,omitempty"`
	FullName  *string         `json:"full_name,omitempty"`
	Birthdate *string         `json:"birthdate,omitempty"`
	Gender    *types.Gender   `json:"gender,omitempty"`
	Role      *types.UserRole `json:"role,omitempty"`
	Password  *string         `json:"password,omitempty"`
}

// AdminService is the user-management surface. Consultation deletion is
// delegated to the workflow service so record-then-blob ordering and the
// deletion broadcast stay in one place.
type AdminService interface {
	GetAllUsers(ctx context.Context) ([]*UserDTO, error)
	GetAllConsultations(ctx context.Context) ([]*ConsultationDTO, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*UserDTO, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	DeleteConsultation(ctx context.Context, consultationID uuid.UUID) error
}

type adminService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	userRepo            repos.UserRepo
	consultationService ConsultationService
}

func NewAdminService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, consultationService ConsultationService) AdminService {
	return &adminService{
		db:                  db,
		log:                 log.With("service", "AdminService"),
		userRepo:            userRepo,
		consultationService: consultationService,
	}
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]*UserDTO, error) {
	users, err := s.userRepo.GetAll(ctx, nil)
	if err != nil {
		s.log.Error("Failed to list users", "error", err)
		return []*UserDTO{}, nil
	}
	dtos := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		dto := toUserDTO(u)
		dtos = append(dtos, &dto)
	}
	return dtos, nil
}

func (s *adminService) GetAllConsultations(ctx context.Context) ([]*ConsultationDTO, error) {
	return s.consultationService.GetAll(ctx)
}

func (s *adminService) UpdateUser(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load user: %v", types.ErrDependency, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", types.ErrNotFound, userID)
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Birthdate != nil {
		birthdate, err := time.Parse("2006-01-02", *req.Birthdate)
		if err != nil {
			return nil, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", types.ErrValidation)
		}
		user.Birthdate = birthdate
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to hash password: %v", types.ErrDependency, err)
		}
		user.Password = string(hashed)
	}

	updated, err := s.userRepo.Update(ctx, nil, user)
	if err != nil {
		s.log.Error("Failed to update user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: failed to update user: %v", types.ErrDependency, err)
	}

	s.log.Info("User updated", "user_id", userID)
	dto := toUserDTO(updated)
	return &dto, nil
}

func (s *adminService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.userRepo.DeleteByID(ctx, nil, userID)
	if err != nil {
		s.log.Error("Failed to delete user", "user_id", userID, "error", err)
		return fmt.Errorf("%w: failed to delete user: %v", types.ErrDependency, err)
	}
	if !deleted {
		return fmt.Errorf("%w: user %s", types.ErrNotFound, userID)
	}
	s.log.Info("User deleted", "user_id", userID)
	return nil
}

func (s *adminService) DeleteConsultation(ctx context.Context, consultationID uuid.UUID) error {
	return s.consultationService.Delete(ctx, consultationID)
}
