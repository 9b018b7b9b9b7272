package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrInquiryExists indicates a file for the inquiry ID is already on disk.
	ErrInquiryExists = errors.New("contact inquiry already stored")
	// ErrInvalidInquiryID indicates an ID that cannot be used as a file name.
	ErrInvalidInquiryID = errors.New("invalid contact inquiry id")
)

// StorageError reports a filesystem failure while reading or writing inquiries.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SerializationError reports an inquiry document that could not be encoded, decoded or
// did not match the inquiry schema.
type SerializationError struct {
	Op   string
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("serialization: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("serialization: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
