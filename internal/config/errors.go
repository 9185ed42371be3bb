package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	// ErrNotFound indicates the config path does not exist.
	ErrNotFound = errors.New("config file does not exist")

	// ErrInvalid indicates the file could not be read or is not valid JSON.
	ErrInvalid = errors.New("config file is not valid JSON")

	// ErrSchemaInvalid indicates the document parsed but has the wrong shape.
	ErrSchemaInvalid = errors.New("config file has an invalid schema")
)

// ParseError wraps ErrInvalid together with the decoder's failure.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrInvalid, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInvalid, e.Msg, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrInvalid, e.Err} }

// SchemaError names the offending field. Wraps ErrSchemaInvalid.
type SchemaError struct {
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaInvalid, e.Msg)
	}
	return fmt.Sprintf("%s: %s %s", ErrSchemaInvalid, e.Field, e.Msg)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaInvalid }
