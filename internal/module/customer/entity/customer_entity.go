package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/server/internal/module/customer/domain"
)

// CustomerEntity is the persistence model for customers.
type CustomerEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nickname  string    `gorm:"size:64;not null"`
	Phone     string    `gorm:"size:16;not null;uniqueIndex:idx_customers_phone"`
	CreatedAt time.Time
}

// TableName returns the database table name.
func (CustomerEntity) TableName() string {
	return "customers"
}

// ToDomain converts the entity to a domain Customer.
func (e *CustomerEntity) ToDomain() *domain.Customer {
	return domain.RestoreCustomer(e.ID, e.Nickname, e.Phone, e.CreatedAt)
}

// FromDomain converts a domain Customer to an entity.
func FromDomain(c *domain.Customer) *CustomerEntity {
	return &CustomerEntity{
		ID:        c.ID(),
		Nickname:  c.Nickname(),
		Phone:     c.Phone(),
		CreatedAt: c.CreatedAt(),
	}
}
