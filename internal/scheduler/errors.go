package scheduler

import (
	"fmt"
	"strconv"
)

const (
	CodeInvalidOrdersFormat = "INVALID_ORDERS_FORMAT"
	CodeInvalidOrderData    = "INVALID_ORDER_DATA"
	CodePriorityCalculation = "PRIORITY_CALCULATION_ERROR"
	CodePreparationTime     = "PREPARATION_TIME_ERROR"
	CodePickupWindow        = "PICKUP_WINDOW_ERROR"
	CodeDelayDetection      = "DELAY_DETECTION_ERROR"
)

const (
	detailOrderID = "orderId"
	detailIndex   = "orderIndex"
)

// Sentinels for errors.Is; matching is by code only.
var (
	ErrInvalidOrdersFormat = &Error{Code: CodeInvalidOrdersFormat}
	ErrInvalidOrderData    = &Error{Code: CodeInvalidOrderData}
	ErrPriorityCalculation = &Error{Code: CodePriorityCalculation}
	ErrPreparationTime     = &Error{Code: CodePreparationTime}
	ErrPickupWindow        = &Error{Code: CodePickupWindow}
	ErrDelayDetection      = &Error{Code: CodeDelayDetection}
)

// Error is a scheduling failure with a machine-readable code and the order
// context it happened in.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// OrderID returns the id of the order the error refers to, if any.
func (e *Error) OrderID() string { return e.Details[detailOrderID] }

func newError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

func invalidOrderData(index int, id, reason string) *Error {
	return newError(CodeInvalidOrderData, "invalid order format: "+reason, nil).
		WithDetail(detailIndex, strconv.Itoa(index)).
		WithDetail(detailOrderID, id)
}

func orderError(code, message, orderID string, cause error) *Error {
	return newError(code, message, cause).WithDetail(detailOrderID, orderID)
}
