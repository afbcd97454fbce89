package flight

import (
	"encoding/json"
	"errors"
	"net/http"

	"flightbroker/pkg/gds"

	"github.com/gin-gonic/gin"
)

type ErrorCode string

const (
	ErrorCodeValidation              ErrorCode = "VALIDATION_ERROR"
	ErrorCodeAuth                    ErrorCode = "AUTH_ERROR"
	ErrorCodeSupplierUnreachable     ErrorCode = "SUPPLIER_UNREACHABLE"
	ErrorCodeSupplierBusiness        ErrorCode = "SUPPLIER_BUSINESS_ERROR"
	ErrorCodeInvalidSupplierResponse ErrorCode = "INVALID_SUPPLIER_RESPONSE"
	ErrorCodeNotFound                ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized            ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden               ErrorCode = "FORBIDDEN"
	ErrorCodeInternalFailure         ErrorCode = "INTERNAL_FAILURE"
)

// AppError is an error that already knows how it should be rendered.
type AppError struct {
	Status  int
	Code    ErrorCode
	Message string
	Payload json.RawMessage
}

func (e *AppError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: ErrorCodeValidation, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: ErrorCodeNotFound, Message: msg}
}

func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: ErrorCodeUnauthorized, Message: msg}
}

func NewForbiddenError(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: ErrorCodeForbidden, Message: msg}
}

// ToAppError classifies err into the caller-facing taxonomy.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var business *gds.BusinessError
	if errors.As(err, &business) {
		return &AppError{
			Status:  http.StatusBadRequest,
			Code:    ErrorCodeSupplierBusiness,
			Message: business.Message,
			Payload: business.Payload,
		}
	}

	var unreachable *gds.UnreachableError
	if errors.As(err, &unreachable) {
		status := http.StatusBadGateway
		if unreachable.StatusCode >= 400 && unreachable.StatusCode < 600 {
			status = unreachable.StatusCode
		}
		return &AppError{
			Status:  status,
			Code:    ErrorCodeSupplierUnreachable,
			Message: "Flight supplier is unreachable",
			Payload: unreachable.Body,
		}
	}

	switch {
	case errors.Is(err, gds.ErrAuth):
		return &AppError{Status: http.StatusInternalServerError, Code: ErrorCodeAuth, Message: "Failed to authenticate with flight API"}
	case errors.Is(err, gds.ErrInvalidSupplierResponse):
		return &AppError{Status: http.StatusBadGateway, Code: ErrorCodeInvalidSupplierResponse, Message: "Invalid response from flight supplier"}
	}

	return &AppError{Status: http.StatusInternalServerError, Code: ErrorCodeInternalFailure, Message: "Internal Server Error"}
}

// SendError writes err as {errorKind, error, supplierPayload}.
func SendError(c *gin.Context, err error) {
	appErr := ToAppError(err)

	body := gin.H{
		"errorKind": appErr.Code,
		"error":     appErr.Message,
	}
	if len(appErr.Payload) > 0 {
		body["supplierPayload"] = appErr.Payload
	}
	c.JSON(appErr.Status, body)
}
