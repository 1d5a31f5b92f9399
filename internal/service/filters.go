package service

import (
	"strconv"
	"strings"

	"recipebox/internal/models"
)

// ParseIDList parses a comma-separated list of IDs such as "1,2,3".
// An empty value means no filter. Any integer is accepted; zero or negative
// IDs become 0, which no row has, so they match nothing.
func ParseIDList(param, raw string) ([]uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, models.NewMalformedFilterError(param, raw)
		}
		if id < 0 {
			id = 0
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// ParseAssignedOnly accepts "", "0" and "1".
func ParseAssignedOnly(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, models.NewMalformedFilterError("assigned_only", raw)
	}
}
