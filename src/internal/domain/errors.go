package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrValidation = errors.New("Validation failed")
var ErrAccountNotActive = errors.New("Account is not active")
var ErrFraudRejected = errors.New("Transfer rejected by fraud policy")
var ErrAccessDenied = errors.New("Access denied")
var ErrConcurrencyConflict = errors.New("Concurrent modification detected")
var ErrDuplicateAccountNumber = errors.New("Account number already exists")
