package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/utils/patch"
)

var storeCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,16}$`)

// nowFunc is swapped in tests to control timestamps.
var nowFunc = time.Now

// Location is a store's geographic position.
type Location struct {
	Latitude  float64
	Longitude float64
}

// StoreParams holds the fields of a new store.
type StoreParams struct {
	Name     string
	Code     string
	Address  string
	Phone    string
	Location *Location
	IsOpen   bool
}

// StorePatch lists the store fields an update may change.
type StorePatch struct {
	Name    patch.Optional[string]
	Address patch.Optional[string]
	Phone   patch.Optional[string]
	IsOpen  patch.Optional[bool]
}

// Store is a physical shop selling catalog items.
type Store struct {
	id        uuid.UUID
	name      string
	code      string
	address   string
	phone     string
	location  *Location
	isOpen    bool
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewStore validates p and creates a store.
func NewStore(p StoreParams) (*Store, error) {
	name, err := storeName(p.Name)
	if err != nil {
		return nil, err
	}
	code := strings.TrimSpace(p.Code)
	if !storeCodePattern.MatchString(code) {
		return nil, ErrInvalidStoreCode
	}
	if err := validateLocation(p.Location); err != nil {
		return nil, err
	}

	now := nowFunc()
	return &Store{
		id:        uuid.New(),
		name:      name,
		code:      code,
		address:   strings.TrimSpace(p.Address),
		phone:     strings.TrimSpace(p.Phone),
		location:  p.Location,
		isOpen:    p.IsOpen,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// RestoreStore recreates a store from persistence without validation.
func RestoreStore(
	id uuid.UUID,
	name, code, address, phone string,
	location *Location,
	isOpen bool,
	createdAt, updatedAt time.Time,
	deletedAt *time.Time,
) *Store {
	return &Store{
		id:        id,
		name:      name,
		code:      code,
		address:   address,
		phone:     phone,
		location:  location,
		isOpen:    isOpen,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (s *Store) ID() uuid.UUID         { return s.id }
func (s *Store) Name() string          { return s.name }
func (s *Store) Code() string          { return s.code }
func (s *Store) Address() string       { return s.address }
func (s *Store) Phone() string         { return s.phone }
func (s *Store) Location() *Location   { return s.location }
func (s *Store) IsOpen() bool          { return s.isOpen }
func (s *Store) CreatedAt() time.Time  { return s.createdAt }
func (s *Store) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Store) DeletedAt() *time.Time { return s.deletedAt }
func (s *Store) IsActive() bool        { return s.deletedAt == nil }

// Update applies the set fields of p.
func (s *Store) Update(p StorePatch) error {
	if !s.IsActive() {
		return ErrStoreDeleted
	}
	if v, ok := p.Name.Value(); ok {
		name, err := storeName(v)
		if err != nil {
			return err
		}
		s.name = name
	}
	if v, ok := p.Address.Value(); ok {
		s.address = strings.TrimSpace(v)
	}
	if v, ok := p.Phone.Value(); ok {
		s.phone = strings.TrimSpace(v)
	}
	if v, ok := p.IsOpen.Value(); ok {
		s.isOpen = v
	}
	s.touch()
	return nil
}

// Deactivate soft deletes the store.
func (s *Store) Deactivate() error {
	if !s.IsActive() {
		return ErrStoreDeleted
	}
	now := nowFunc()
	s.deletedAt = &now
	s.touch()
	return nil
}

// Restore undoes Deactivate.
func (s *Store) Restore() error {
	if s.IsActive() {
		return ErrStoreNotDeleted
	}
	s.deletedAt = nil
	s.touch()
	return nil
}

func (s *Store) touch() {
	s.updatedAt = later(nowFunc(), s.updatedAt)
}

func storeName(v string) (string, error) {
	v = strings.TrimSpace(v)
	if n := utf8.RuneCountInString(v); n < 3 || n > 64 {
		return "", ErrInvalidStoreName
	}
	return v, nil
}

func validateLocation(l *Location) error {
	if l == nil {
		return nil
	}
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

func later(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
