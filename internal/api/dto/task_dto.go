package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/spec-kit/userauth-service/internal/domain"
)

// TaskCreateRequest payload for a new task.
type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (r TaskCreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("Title is required"),
			validation.Length(3, 100).Error("Title must be between 3 and 100 characters"),
		),
		validation.Field(&r.Description, validation.Length(0, 500).Error("Description must not exceed 500 characters")),
	)
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	UserID      int64   `json:"user_id"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		UserID:      task.UserID,
	}
}
