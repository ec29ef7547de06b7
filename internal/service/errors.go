package service

import "errors"

// Validation errors.
var (
	ErrInvalidAmount = errors.New("payer amount must not be negative")
	ErrInvalidCost   = errors.New("expense cost must not be negative")
	ErrInvalidTitle  = errors.New("expense title is required")
	ErrInvalidToken  = errors.New("device token and user are required")
)

// Not-found errors.
var (
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrPayerNotFound    = errors.New("payer not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDeliveryNotFound = errors.New("delivery not found")
)
