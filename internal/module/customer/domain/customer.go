package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Customer domain errors.
var (
	ErrInvalidNickname = errors.New("nickname must be between 1 and 64 characters")
	ErrInvalidPhone    = errors.New("phone must be 8 to 15 digits with an optional leading +")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

var nowFunc = time.Now

// Customer is a person who places orders. The phone number identifies them.
type Customer struct {
	id        uuid.UUID
	nickname  string
	phone     string
	createdAt time.Time
}

// NewCustomer validates and creates a customer. Spaces, dashes and
// parentheses are stripped from phone before validation.
func NewCustomer(nickname, phone string) (*Customer, error) {
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n == 0 || n > 64 {
		return nil, ErrInvalidNickname
	}
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	return &Customer{
		id:        uuid.New(),
		nickname:  nickname,
		phone:     phone,
		createdAt: nowFunc(),
	}, nil
}

// RestoreCustomer rebuilds a customer from storage.
func RestoreCustomer(id uuid.UUID, nickname, phone string, createdAt time.Time) *Customer {
	return &Customer{id: id, nickname: nickname, phone: phone, createdAt: createdAt}
}

func (c *Customer) ID() uuid.UUID        { return c.id }
func (c *Customer) Nickname() string     { return c.nickname }
func (c *Customer) Phone() string        { return c.phone }
func (c *Customer) CreatedAt() time.Time { return c.createdAt }

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone strips separators from phone and validates what is left.
func NormalizePhone(phone string) (string, error) {
	phone = phoneSeparators.Replace(strings.TrimSpace(phone))
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
