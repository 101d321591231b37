package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name           string `json:"name" gorm:"column:name;not null"`
	Email          string `json:"email" gorm:"column:email;unique;not null"`
	PasswordHash   string `json:"-" gorm:"column:password_hash;not null"`
	ProfilePicture string `json:"profilePicture" gorm:"column:profile_picture;default:''"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// SetPassword hashes the plaintext password and stores the digest.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword compares the stored digest against a plaintext password.
func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
