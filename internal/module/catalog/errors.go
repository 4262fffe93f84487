package catalog

import "errors"

// Module errors.
var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreCodeTaken     = errors.New("store code already in use")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryTaken      = errors.New("category already exists in this store")
	ErrCategoryWrongStore = errors.New("category belongs to another store")
	ErrItemNotFound       = errors.New("item not found")
	ErrItemCodeTaken      = errors.New("item code already in use in this store")
)
