package domain

import "errors"

var (
	ErrNotFound            = errors.New("item not found")
	ErrEmptyItemID         = errors.New("item id must not be empty")
	ErrNegativeQuantity    = errors.New("quantity must be non-negative")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrInsufficientStock   = errors.New("insufficient stock")
)
