package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrSelfReference  = errors.New("profile cannot reference itself")
)
