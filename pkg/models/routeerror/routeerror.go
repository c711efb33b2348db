package routeerror

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	ROUTE_UNEXPECTED              = "RTU"
	ROUTE_UNSUPPORTED_OPERATOR    = "RTO"
	ROUTE_UNSUPPORTED_PREDICATE   = "RTP"
	ROUTE_UNSUPPORTED_MULTI_TABLE = "RTM"
	ROUTE_NO_ROUTE                = "RTN"
	ROUTE_CONFIG                  = "RTC"
	ROUTE_INVALID_PARAM           = "RTI"
)

var existingErrorCodeMap = map[string]string{
	ROUTE_UNEXPECTED:              "Unexpected error",
	ROUTE_UNSUPPORTED_OPERATOR:    "UnsupportedOperator",
	ROUTE_UNSUPPORTED_PREDICATE:   "UnsupportedPredicateShape",
	ROUTE_UNSUPPORTED_MULTI_TABLE: "UnsupportedMultiTableModification",
	ROUTE_NO_ROUTE:                "NoRouteFound",
	ROUTE_CONFIG:                  "ConfigurationInconsistency",
	ROUTE_INVALID_PARAM:           "InvalidParameterReference",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &RouteError{}

type RouteError struct {
	Err error

	ErrorCode string
}

// New creates a RouteError with the given code and message.
func New(errorCode string, errorMsg string) *RouteError {
	return &RouteError{
		Err:       errors.New(errorMsg),
		ErrorCode: errorCode,
	}
}

func Newf(errorCode string, format string, a ...any) *RouteError {
	return &RouteError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
}

// NewByCode creates a RouteError whose description is the code's name.
func NewByCode(errorCode string) *RouteError {
	return &RouteError{
		Err:       errors.New(GetMessageByCode(errorCode)),
		ErrorCode: errorCode,
	}
}

func (er *RouteError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

func (er *RouteError) Unwrap() error {
	return er.Err
}

// Is reports whether any error in err's chain is a RouteError with the given code.
func Is(err error, errorCode string) bool {
	var re *RouteError
	if errors.As(err, &re) {
		return re.ErrorCode == errorCode
	}
	return false
}
