package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims carried on every authenticated request.
// UserID is the owner key for leads and campaigns.
type UserClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}
