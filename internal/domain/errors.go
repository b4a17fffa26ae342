package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ConfigurationError is fatal at startup: the process must not run without Key.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: %s is required", e.Key)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// TransportError describes a failed CRM call: network, HTTP status, or a Bitrix error envelope.
type TransportError struct {
	Method      string
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("crm %s", e.Method)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPriceError marks a record whose price amount is not a number.
type MalformedPriceError struct {
	Raw string
	Err error
}

func (e *MalformedPriceError) Error() string {
	return fmt.Sprintf("malformed price %q: %v", e.Raw, e.Err)
}

func (e *MalformedPriceError) Unwrap() error { return e.Err }
