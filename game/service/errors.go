package service

import "errors"

var (
	// ErrInvalidRequest marks requests rejected before they reach the controller
	ErrInvalidRequest = errors.New("invalid request")
	ErrPresetNotFound = errors.New("preset not found")
)
