package utils

import (
	"fmt"
	"strconv"
)

// ParseID converts a positive decimal string to an int64 id
func ParseID(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("id is required")
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("invalid id value: %q", s)
	}
	return val, nil
}
