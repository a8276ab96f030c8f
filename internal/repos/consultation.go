package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/types"
)

type ConsultationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, consultation *types.Consultation) (*types.Consultation, error)
	// Update persists a loaded consultation and fails with types.ErrConflict
	// when another writer committed in between.
	Update(ctx context.Context, tx *gorm.DB, consultation *types.Consultation) (*types.Consultation, error)
	GetByID(ctx context.Context, tx *gorm.DB, consultationID uuid.UUID) (*types.Consultation, error)
	GetByPatient(ctx context.Context, tx *gorm.DB, patientID uuid.UUID) ([]*types.Consultation, error)
	GetByExpert(ctx context.Context, tx *gorm.DB, expertID uuid.UUID) ([]*types.Consultation, error)
	GetByStatus(ctx context.Context, tx *gorm.DB, status types.ConsultationStatus) ([]*types.Consultation, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Consultation, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, consultationID uuid.UUID) (bool, error)
}

type consultationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConsultationRepo(db *gorm.DB, baseLog *logger.Logger) ConsultationRepo {
	return &consultationRepo{db: db, log: baseLog.With("repo", "ConsultationRepo")}
}

func (cr *consultationRepo) Create(ctx context.Context, tx *gorm.DB, consultation *types.Consultation) (*types.Consultation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).Create(consultation).Error; err != nil {
		return nil, err
	}
	return consultation, nil
}

func (cr *consultationRepo) Update(ctx context.Context, tx *gorm.DB, consultation *types.Consultation) (*types.Consultation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	loadedVersion := consultation.Version
	next := *consultation
	next.Version = loadedVersion + 1

	res := transaction.WithContext(ctx).
		Model(&types.Consultation{}).
		Where("id = ? AND version = ?", consultation.ID, loadedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(&next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, types.ErrConflict
	}
	consultation.Version = next.Version
	return consultation, nil
}

func (cr *consultationRepo) GetByID(ctx context.Context, tx *gorm.DB, consultationID uuid.UUID) (*types.Consultation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var consultation types.Consultation
	err := transaction.WithContext(ctx).Where("id = ?", consultationID).First(&consultation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consultation, nil
}

func (cr *consultationRepo) GetByPatient(ctx context.Context, tx *gorm.DB, patientID uuid.UUID) ([]*types.Consultation, error) {
	return cr.getMany(ctx, tx, "patient_id = ?", patientID)
}

func (cr *consultationRepo) GetByExpert(ctx context.Context, tx *gorm.DB, expertID uuid.UUID) ([]*types.Consultation, error) {
	return cr.getMany(ctx, tx, "expert_id = ?", expertID)
}

func (cr *consultationRepo) GetByStatus(ctx context.Context, tx *gorm.DB, status types.ConsultationStatus) ([]*types.Consultation, error) {
	return cr.getMany(ctx, tx, "status = ?", status)
}

func (cr *consultationRepo) getMany(ctx context.Context, tx *gorm.DB, query string, arg interface{}) ([]*types.Consultation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Consultation
	if err := transaction.WithContext(ctx).Where(query, arg).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *consultationRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Consultation, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Consultation
	if err := transaction.WithContext(ctx).Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *consultationRepo) DeleteByID(ctx context.Context, tx *gorm.DB, consultationID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", consultationID).Delete(&types.Consultation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
