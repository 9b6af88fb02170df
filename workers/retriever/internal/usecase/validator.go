package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain"
	"github.com/UofM-CEOS/remote-sensing/workers/retriever/internal/domain/service"
)

type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate rejects a request before any network or storage work happens.
func (v *RequestValidator) Validate(req *RetrieveRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return domain.NewDomainError(domain.ErrInvalidCriteria.Code, describe(fieldErrs), nil, false)
		}
		return fmt.Errorf("failed to validate request: %w", err)
	}

	c := req.Criteria
	if c.AOI != nil {
		if err := c.AOI.Validate(); err != nil {
			return err
		}
	}

	for _, bound := range []string{c.IngestionFrom, c.IngestionTo, c.SensingFrom, c.SensingTo} {
		if bound == "" {
			continue
		}
		if _, err := service.NormalizeTimeBound(bound); err != nil {
			return err
		}
	}

	return nil
}

func describe(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be a URL, got %q", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (value %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		}
	}
	return strings.Join(msgs, "; ")
}
