package domain

import "errors"

// Catalog domain errors.
var (
	ErrInvalidStoreName   = errors.New("store name must be between 3 and 64 characters")
	ErrInvalidStoreCode   = errors.New("store code must be 3 to 16 upper case letters or digits")
	ErrInvalidLocation    = errors.New("store location is out of range")
	ErrStoreDeleted       = errors.New("store is deleted")
	ErrStoreNotDeleted    = errors.New("store is not deleted")
	ErrInvalidCategory    = errors.New("category name must be between 1 and 64 characters")
	ErrMissingStore       = errors.New("catalog entry must belong to a store")
	ErrMissingCategory    = errors.New("item must belong to a category")
	ErrInvalidItemCode    = errors.New("item code must be between 1 and 32 characters")
	ErrInvalidItemName    = errors.New("item name must be between 1 and 128 characters")
	ErrInvalidDescription = errors.New("item description must be at most 1024 characters")
	ErrInvalidPrice       = errors.New("item price must be greater than zero")
	ErrItemDeleted        = errors.New("item is deleted")
	ErrItemNotDeleted     = errors.New("item is not deleted")
	ErrItemActive         = errors.New("item is already active")
	ErrItemInactive       = errors.New("item is already inactive")
)
