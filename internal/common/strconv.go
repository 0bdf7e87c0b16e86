package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a positive Shopify resource id from a path segment.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, BadRequest(fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}
