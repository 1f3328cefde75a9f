package schema

import "time"

// User represents the users table - every address referenced by a projected event
type User struct {
	// Address is the checksum hex address and primary key
	Address string `gorm:"column:address;primaryKey;type:text"`
	// CreatedAt is the timestamp when the address was first seen
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
