package handlers

import (
	"errors"
	"strconv"
)

var errInvalidID = errors.New("invalid id")

// parseIntParam parses a positive integer path or query parameter.
func parseIntParam(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, errInvalidID
	}
	return v, nil
}
