package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeNotAuthorized    ErrorType = "NOT_AUTHORIZED"
	ErrorTypeForbidden        ErrorType = "FORBIDDEN"
	ErrorTypeAlreadyProcessed ErrorType = "ALREADY_PROCESSED"
	ErrorTypeInvalidAction    ErrorType = "INVALID_ACTION"
	ErrorTypeInternal         ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidDateRange   ErrorCode = "INVALID_DATE_RANGE"
	ErrCodeMissingContestNote ErrorCode = "MISSING_CONTEST_NOTE"
	ErrCodeInvalidSeverity    ErrorCode = "INVALID_SEVERITY"
	ErrCodeInvalidDecision    ErrorCode = "INVALID_DECISION"
	ErrCodeUnknownAction      ErrorCode = "UNKNOWN_ACTION"

	ErrCodeLeaveNotFound  ErrorCode = "LEAVE_REQUEST_NOT_FOUND"
	ErrCodeTicketNotFound ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeUserNotFound   ErrorCode = "USER_NOT_FOUND"

	ErrCodeNotCurrentApprover ErrorCode = "NOT_CURRENT_APPROVER"
	ErrCodeNotTicketParty     ErrorCode = "NOT_TICKET_PARTY"
	ErrCodeIssuerForbidden    ErrorCode = "ISSUER_FORBIDDEN"
	ErrCodeHierarchyCycle     ErrorCode = "HIERARCHY_CYCLE"

	ErrCodeLeaveAlreadyDecided  ErrorCode = "LEAVE_ALREADY_DECIDED"
	ErrCodeTicketAlreadyClosed  ErrorCode = "TICKET_ALREADY_CLOSED"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInsufficientRole     ErrorCode = "INSUFFICIENT_ROLE"
	ErrCodeMissingAuthorization ErrorCode = "MISSING_AUTHORIZATION"
)

// AppError carries a stable machine-readable kind plus the HTTP status it
// maps to. Cause never leaks to callers, only into logs.
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Messages() string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewNotAuthorizedError covers the wrong actor acting on an existing
// request; creation-time rule violations use NewForbiddenError instead.
func NewNotAuthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotAuthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewAlreadyProcessedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyProcessed,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInvalidActionError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidAction,
		Code:       ErrCodeUnknownAction,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrLeaveNotFound        = NewNotFoundError("leave request not found", ErrCodeLeaveNotFound)
	ErrTicketNotFound       = NewNotFoundError("ticket not found", ErrCodeTicketNotFound)
	ErrUserNotFound         = NewNotFoundError("user not found", ErrCodeUserNotFound)
	ErrNotCurrentApprover   = NewNotAuthorizedError("caller is not the current approver", ErrCodeNotCurrentApprover)
	ErrNotTicketParty       = NewNotAuthorizedError("caller is neither the ticket target nor a super authority", ErrCodeNotTicketParty)
	ErrLeaveAlreadyDecided  = NewAlreadyProcessedError("leave request already decided", ErrCodeLeaveAlreadyDecided)
	ErrTicketAlreadyClosed  = NewAlreadyProcessedError("ticket already in a terminal state", ErrCodeTicketAlreadyClosed)
	ErrInvalidToken         = NewNotAuthorizedError("invalid token", ErrCodeInvalidToken)
	ErrTokenExpired         = NewNotAuthorizedError("token has expired", ErrCodeTokenExpired)
	ErrMissingAuthorization = NewNotAuthorizedError("missing authorization", ErrCodeMissingAuthorization)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
