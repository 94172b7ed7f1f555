package validator

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/cinex-booking/api"
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("payment_outcome", validatePaymentOutcome)
	validator.RegisterValidation("refund_decision", validateRefundDecision)

	return validator
}

func validatePaymentOutcome(fl validator.FieldLevel) bool {
	outcome, ok := fl.Field().Interface().(api.PaymentOutcome)
	if !ok {
		return false
	}

	return outcome == api.PaymentOutcomeSuccess ||
		outcome == api.PaymentOutcomeFailed ||
		outcome == api.PaymentOutcomeCancelled
}

func validateRefundDecision(fl validator.FieldLevel) bool {
	decision, ok := fl.Field().Interface().(api.RefundDecision)
	if !ok {
		return false
	}

	return decision == api.RefundDecisionApprove || decision == api.RefundDecisionReject
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	isList := err.Kind() == reflect.Slice || err.Kind() == reflect.Array

	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s items", err.Param())
		}
		return fmt.Sprintf("must be at least %s characters long", err.Param())
	case "max":
		if isList {
			return fmt.Sprintf("must contain at most %s items", err.Param())
		}
		return fmt.Sprintf("must be at most %s characters long", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "payment_outcome":
		return "must be one of SUCCESS, FAILED, CANCELLED"
	case "refund_decision":
		return "must be one of APPROVE, REJECT"
	default:
		return "is invalid"
	}
}
