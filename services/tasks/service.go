// Package tasks implements the to-do module. Every mutation goes through the authorization gate.
package tasks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"github.com/upb/lifedash/services"
	"github.com/upb/lifedash/services/gate"
	"github.com/upb/lifedash/services/policy"
	"go.uber.org/zap"
)

// Gate runs authorized mutations
type Gate interface {
	Run(ctx context.Context, principal *models.Principal, req gate.Request, mutate gate.Mutation) (*gate.Result, error)
}

// CreateInput holds the fields of a new task
type CreateInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateInput holds the fields to change; nil fields are left untouched
type UpdateInput struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *models.TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
}

// Service manages tasks
type Service struct {
	repo   repositories.TaskRepository
	txMgr  repositories.TransactionManager
	gate   Gate
	logger *zap.Logger
}

// NewService creates a task service
func NewService(repo repositories.TaskRepository, txMgr repositories.TransactionManager, g Gate, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		txMgr:  txMgr,
		gate:   g,
		logger: logger,
	}
}

// List returns the principal's tasks
func (s *Service) List(ctx context.Context, principal *models.Principal, limit, offset int) ([]*models.Task, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByOwner(ctx, principal.ID, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list tasks", err)
	}
	return tasks, nil
}

// Get returns one task visible to the principal
func (s *Service) Get(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Task, error) {
	if err := policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	return s.load(ctx, principal, id)
}

// Create adds a task owned by the principal
func (s *Service) Create(ctx context.Context, principal *models.Principal, in CreateInput) (*models.Task, error) {
	req := gate.Request{Module: models.ModuleTasks, Operation: "create"}

	result, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		task := models.NewTask(principal.ID, strings.TrimSpace(in.Title), in.Description)
		task.DueDate = in.DueDate
		if err := s.repo.Create(ctx, task); err != nil {
			return nil, mapRepoError(err, "failed to create task")
		}
		return &gate.Outcome{
			EntityID: task.ID.String(),
			Metadata: map[string]interface{}{"title": task.Title},
			Value:    task,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Value.(*models.Task), nil
}

// Update changes a task inside one transaction
func (s *Service) Update(ctx context.Context, principal *models.Principal, id uuid.UUID, in UpdateInput) (*models.Task, error) {
	req := gate.Request{Module: models.ModuleTasks, Operation: "update", EntityID: id.String()}

	result, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		var changed []string
		task, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Task, error) {
			task, err := s.load(ctx, principal, id)
			if err != nil {
				return nil, err
			}
			changed = apply(task, in)
			if len(changed) == 0 {
				return task, nil
			}
			task.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, task); err != nil {
				return nil, mapRepoError(err, "failed to update task")
			}
			return task, nil
		})
		if err != nil {
			return nil, err
		}
		return &gate.Outcome{
			Metadata: map[string]interface{}{"changed": changed},
			Value:    task,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.Value.(*models.Task), nil
}

// Delete removes a task
func (s *Service) Delete(ctx context.Context, principal *models.Principal, id uuid.UUID) error {
	req := gate.Request{Module: models.ModuleTasks, Operation: "delete", EntityID: id.String()}

	_, err := s.gate.Run(ctx, principal, req, func(ctx context.Context) (*gate.Outcome, error) {
		err := services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
			if _, err := s.load(ctx, principal, id); err != nil {
				return err
			}
			if err := s.repo.Delete(ctx, id); err != nil {
				return mapRepoError(err, "failed to delete task")
			}
			return nil
		})
		return nil, err
	})
	return err
}

// load fetches a task and hides rows that belong to someone else
func (s *Service) load(ctx context.Context, principal *models.Principal, id uuid.UUID) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "failed to get task")
	}
	if task.OwnerID != principal.ID && !principal.IsAdmin() {
		return nil, services.ErrTaskNotFound
	}
	return task, nil
}

func apply(task *models.Task, in UpdateInput) []string {
	var changed []string
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
		changed = append(changed, "title")
	}
	if in.Description != nil {
		task.Description = *in.Description
		changed = append(changed, "description")
	}
	if in.Status != nil {
		task.Status = *in.Status
		changed = append(changed, "status")
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
		changed = append(changed, "due_date")
	}
	return changed
}

func mapRepoError(err error, message string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrTaskNotFound
	case errors.Is(err, repositories.ErrConstraintViolation):
		return services.NewDomainError(services.ErrorTypeValidation, "task violates a data constraint", err)
	default:
		return services.WrapInternal(message, err)
	}
}
