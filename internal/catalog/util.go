package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

func parseDuration(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	return v, nil
}
