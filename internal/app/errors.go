package app

import "fmt"

// DomainError is an operation failure with a ready-made HTTP mapping.
// mapError unwraps it in the handler layer; everything else surfaces as a
// generic server error.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}
