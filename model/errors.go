package model

import "errors"

var (
	// ErrInput marks a malformed prediction request or image payload.
	ErrInput = errors.New("invalid input")
	// ErrNotReady is returned while no pricing model is loaded.
	ErrNotReady = errors.New("model not loaded")
	// ErrData marks a missing or unreadable training dataset.
	ErrData = errors.New("dataset unavailable")
	// ErrStore wraps document store failures.
	ErrStore = errors.New("store failure")
	// ErrDecode marks image bytes that could not be decoded.
	ErrDecode = errors.New("invalid image decoding")
)
