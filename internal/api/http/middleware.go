package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/userauth-service/internal/observability"
	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// exposeInternal controls whether 5xx responses carry the underlying detail.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, exposeInternal bool) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, exposeInternal))
}

// ErrorHandler is the Fiber fallback for errors raised outside the
// middleware chain. It renders the same envelope.
func ErrorHandler(logger *zap.Logger, exposeInternal bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return renderError(c, logger, nil, err, exposeInternal)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeInternal bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.New(apperrors.KindInternal)
			}
			if err != nil {
				err = renderError(c, logger, metrics, err, exposeInternal)
			}
		}()
		return c.Next()
	}
}

func renderError(c *fiber.Ctx, logger *zap.Logger, metrics *observability.Metrics, err error, exposeInternal bool) error {
	// Fiber's own errors (unknown route, body too large) keep their status.
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		metrics.RecordError("HTTP_" + strconv.Itoa(fiberErr.Code))
		return c.Status(fiberErr.Code).JSON(apperrors.NewEnvelope(fiberErr.Code, fiberErr.Message))
	}

	appErr := apperrors.ToError(err)
	metrics.RecordError(appErr.Kind.Code())
	if appErr.Status() >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", observability.RequestID(c)),
			zap.String("kind", appErr.Kind.Code()),
			zap.Error(appErr),
		)
	}
	return c.Status(appErr.Status()).JSON(appErr.Envelope(exposeInternal))
}
