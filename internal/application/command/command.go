// Package command contains write operations (CQRS - Commands).
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
)

// Clock returns the current time. Handlers take one so tests can pin "now".
type Clock func() time.Time

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and reports the failed fields
// as a single validation error.
func validateStruct(domain, op string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return shared.WrapError(domain, op, shared.ErrValidation, "invalid command", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return shared.NewDomainError(domain, op, shared.ErrValidation, strings.Join(msgs, "; "))
}

func defaultClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func defaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
