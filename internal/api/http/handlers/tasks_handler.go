package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/userauth-service/internal/api/dto"
	"github.com/spec-kit/userauth-service/internal/api/request"
	"github.com/spec-kit/userauth-service/internal/auth"
	"github.com/spec-kit/userauth-service/internal/domain"
	"github.com/spec-kit/userauth-service/internal/service"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// TasksHandler manages the caller's tasks.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// CreateTask POST /api/tasks.
func (h *TasksHandler) CreateTask(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}
	req, err := request.Bind[dto.TaskCreateRequest](c)
	if err != nil {
		return err
	}

	task, err := h.tasks.CreateTask(c.UserContext(), owner, req.Title, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// ListTasks GET /api/tasks.
func (h *TasksHandler) ListTasks(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.ListTasks(c.UserContext(), owner)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTask GET /api/tasks/:id.
func (h *TasksHandler) GetTask(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}
	task, err := h.tasks.GetTask(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// DeleteTask DELETE /api/tasks/:id.
func (h *TasksHandler) DeleteTask(c *fiber.Ctx) error {
	owner, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}
	if err := h.tasks.DeleteTask(c.UserContext(), owner, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.IdentityFromContext(c)
	if !ok {
		return nil, apperrors.New(apperrors.KindMissingToken)
	}
	return user, nil
}

// taskID parses the :id segment. Ids that cannot name a stored task are
// reported as not found.
func taskID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.KindTaskNotFound)
	}
	return id, nil
}
