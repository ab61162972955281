// Package formatting converts byte sizes between integers and the
// human-readable strings used in configuration files.
package formatting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ByteSize is a count of bytes.
type ByteSize int64

// Base-1024 size units.
const (
	B  ByteSize = 1
	KB          = B << 10
	MB          = KB << 10
	GB          = MB << 10
	TB          = GB << 10
)

var suffixes = []struct {
	suffix string
	size   ByteSize
}{
	{"TB", TB},
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
	{"B", B},
}

// ParseByteSize parses strings such as "1MB", "512 kb", "1.5GB", or a bare
// number of bytes. Units are case-insensitive and base-1024.
func ParseByteSize(s string) (ByteSize, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	unit := B
	number := trimmed
	for _, u := range suffixes {
		if strings.HasSuffix(trimmed, u.suffix) {
			unit = u.size
			number = strings.TrimSpace(strings.TrimSuffix(trimmed, u.suffix))
			break
		}
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	return ByteSize(value * float64(unit)), nil
}

// String renders the size in the largest unit that keeps the value at or
// above one, rounded to one decimal place.
func (b ByteSize) String() string {
	for _, u := range suffixes {
		if b >= u.size && u.size > B {
			v := strconv.FormatFloat(float64(b)/float64(u.size), 'f', 1, 64)
			return strings.TrimSuffix(v, ".0") + u.suffix
		}
	}
	return strconv.FormatInt(int64(b), 10) + "B"
}
