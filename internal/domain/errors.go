package domain

import "errors"

var (
	// ErrInvalidInput is returned for malformed input values
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedPair is returned when a pair is not in the exchange product listing
	ErrUnsupportedPair = errors.New("unsupported trading pair")

	// ErrSizeOutOfBounds is returned when a spend amount or computed base
	// quantity falls outside the exchange-declared min/max sizes
	ErrSizeOutOfBounds = errors.New("order size out of bounds")

	// ErrInvalidIncrement is returned for a non-positive currency increment
	ErrInvalidIncrement = errors.New("invalid currency increment")

	// ErrUnauthorized is returned on HTTP 401 from the exchange
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInsufficientBalance is returned when the quote balance cannot cover a buy
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrExchangeAPI is returned on exchange API errors
	ErrExchangeAPI = errors.New("exchange API error")

	// ErrDatabaseConnection is returned on database connection errors
	ErrDatabaseConnection = errors.New("database connection error")
)
