package audit

import (
	"fmt"
	"strings"
)

// FormatDetails renders the details body of an automatic removal entry.
func FormatDetails(usersRemoved int, channelID int64, event string) string {
	return fmt.Sprintf("users_removed: %d\nchannel_id: %d\nevent: %s", usersRemoved, channelID, event)
}

// ParseDetails splits a "key: value" per line details body.
func ParseDetails(details string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(details, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return fields
}
