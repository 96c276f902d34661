package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWT claims structure
type Claims struct {
	UserID UserID `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// UserUpdate is the subset of the remote user profile refreshed at checkout.
type UserUpdate struct {
	Address UserAddress `json:"address"`
	Phone   string      `json:"phone"`
}

type UserAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
}
