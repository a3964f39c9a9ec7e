package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) error
	Update(ctx context.Context, agent *model.Agent) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	List(ctx context.Context, page, limit int) ([]model.Agent, int64, error)
}

type agentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) error {
	return GetDB(ctx, r.db).Create(agent).Error
}

func (r *agentRepository) Update(ctx context.Context, agent *model.Agent) error {
	return GetDB(ctx, r.db).Save(agent).Error
}

func (r *agentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Agent{}).Error
}

func (r *agentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).First(&agent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context, page, limit int) ([]model.Agent, int64, error) {
	var agents []model.Agent
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Agent{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&agents).Error; err != nil {
		return nil, 0, err
	}

	return agents, total, nil
}
