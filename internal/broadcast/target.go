package broadcast

import (
	"fmt"
	"strconv"
	"strings"
)

// parseTarget interprets a non-"all" target as a Telegram user id.
func parseTarget(target string) (int64, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid broadcast target %q: %w", target, err)
	}
	return userID, nil
}
