package models

import (
	"time"
)

type UserType string

const (
	UserTypeIndividual  UserType = "Individual"
	UserTypeEnterprises UserType = "Enterprises"
	UserTypeGovernment  UserType = "Government"
)

// User is the identity record. Username always equals Email.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:254;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:150;not null" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Profile   *Profile  `gorm:"constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Profile struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"-"`
	UserType     UserType  `gorm:"size:15;not null" json:"user_type"`
	Address      string    `gorm:"type:text;not null" json:"address"`
	Country      string    `gorm:"size:100;not null" json:"country"`
	State        string    `gorm:"size:100;not null" json:"state"`
	City         string    `gorm:"size:100;not null" json:"city"`
	Pincode      string    `gorm:"size:10;not null" json:"pincode"`
	ISDCode      string    `gorm:"size:5;not null" json:"isd_code"`
	MobileNumber string    `gorm:"size:15;not null" json:"mobile_number"`
	Fax          *string   `gorm:"size:15" json:"fax"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
