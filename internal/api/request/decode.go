// Package request turns raw request bodies into decoded, validated values
// before any business handler sees them.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/userauth-service/pkg/util"
)

// Validatable is implemented by every request payload.
type Validatable interface {
	Validate() error
}

var errNotObject = errors.New("expected a single JSON object")

// Decode parses body as exactly one JSON object of type T and runs its
// constraints. Structural failures yield MalformedPayload; constraint
// failures yield FailedConstraints listing every violated field.
func Decode[T Validatable](body []byte) (T, error) {
	var zero, value T

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return zero, apperrors.NewMalformedPayload(io.EOF)
	}
	if trimmed[0] != '{' {
		return zero, apperrors.NewMalformedPayload(errNotObject)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&value); err != nil {
		return zero, apperrors.NewMalformedPayload(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return zero, apperrors.NewMalformedPayload(errNotObject)
	}

	if err := value.Validate(); err != nil {
		return zero, constraintError(err)
	}
	return value, nil
}

// Bind decodes the body of the current Fiber request.
func Bind[T Validatable](c *fiber.Ctx) (T, error) {
	return Decode[T](c.Body())
}

func constraintError(err error) error {
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return apperrors.Wrap(apperrors.KindInternal, internal.InternalError())
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewFailedConstraints([]apperrors.Violation{{Message: err.Error()}})
	}

	violations := flatten("", fieldErrs, nil)
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Field < violations[j].Field
	})
	return apperrors.NewFailedConstraints(violations)
}

func flatten(prefix string, errs validation.Errors, out []apperrors.Violation) []apperrors.Violation {
	for field, err := range errs {
		if err == nil {
			continue
		}
		name := field
		if prefix != "" {
			name = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			out = flatten(name, nested, out)
			continue
		}
		out = append(out, apperrors.Violation{Field: name, Message: err.Error()})
	}
	return out
}
