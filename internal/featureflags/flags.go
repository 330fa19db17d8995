// Package featureflags evaluates the FEATURE_FLAGS setting.
//
// The setting is a comma separated list of name=value pairs, for example
// "post_notifications=on,new_feed=25%". A bare name is treated as "on".
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// PostNotifications gates like and comment notifications.
const PostNotifications = "post_notifications"

// Flags holds the parsed flag values keyed by lowercase name.
type Flags struct {
	values map[string]string
}

// Parse builds Flags from the raw FEATURE_FLAGS value. Malformed entries are skipped.
func Parse(raw string) *Flags {
	values := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		name, value, found := strings.Cut(entry, "=")
		name = normalize(name)
		if name == "" {
			continue
		}
		if !found {
			values[name] = "on"
			continue
		}
		if value = normalize(value); value != "" {
			values[name] = value
		}
	}
	return &Flags{values: values}
}

// Enabled reports whether name is on for userID. Values may be on/off style
// booleans or an "N%" rollout, which buckets users deterministically.
func (f *Flags) Enabled(name string, userID uint) bool {
	if f == nil {
		return false
	}
	value, ok := f.values[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1", "yes":
		return true
	case "off", "false", "0", "no":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return userID != 0 && bucket(name, userID) < pct
}

// Snapshot evaluates every configured flag for userID.
func (f *Flags) Snapshot(userID uint) map[string]bool {
	if f == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(f.values))
	for name := range f.values {
		out[name] = f.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
