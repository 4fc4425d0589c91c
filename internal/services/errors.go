package services

import "errors"

var (
	// ErrInvalidReference means a scanned token does not identify the kind of
	// entity the operation needs
	ErrInvalidReference = errors.New("invalid QR reference")
	// ErrNoEmployeeSelected means a loan was attempted before an employee
	// card was scanned
	ErrNoEmployeeSelected = errors.New("no employee selected")
	ErrAlreadyRunning     = errors.New("machine is already running")
	ErrNotRunning         = errors.New("machine is not running")
	ErrMachineOffline     = errors.New("machine is offline")
	// ErrInvariantViolation means stored loans already hold more than one
	// open loan for the same equipment
	ErrInvariantViolation = errors.New("equipment already has an open loan")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicate          = errors.New("already exists")
	ErrUnauthorized       = errors.New("invalid email or password")
)
