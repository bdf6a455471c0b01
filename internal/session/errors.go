package session

import "errors"

// ErrNotFound is returned when a session or evidence id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrEmptyName is returned when a session is created or renamed with a blank
// name.
var ErrEmptyName = errors.New("session name is empty")

// CorruptError is returned when a metadata file exists but cannot be parsed.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return "corrupt session metadata at " + e.Path + ": " + e.Err.Error()
}

func (e *CorruptError) Unwrap() error { return e.Err }

// StorageError is an I/O failure during a store operation. The prior on-disk
// state is left intact whenever the operation reports one.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return "storage failure in " + e.Op + " (" + e.Path + "): " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }
