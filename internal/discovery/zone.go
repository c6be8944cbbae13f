package discovery

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/shopsift/internal/domains"
)

var (
	// ErrInvalidZone is returned for a zone that is not a DNS suffix.
	ErrInvalidZone = fmt.Errorf("%w: invalid domain zone", domains.ErrInput)
	// ErrInvalidLastPage is returned for a last page that is not a positive integer.
	ErrInvalidLastPage = fmt.Errorf("%w: invalid last page", domains.ErrInput)
	// ErrNoPages is returned when the directory has no pagination for a zone.
	ErrNoPages = fmt.Errorf("%w: zone has no directory pages", domains.ErrInput)
)

var zonePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// NormalizeZone lowercases a zone and strips a leading dot, so ".IN" and
// "in" name the same zone.
func NormalizeZone(zone string) (string, error) {
	z := strings.ToLower(strings.TrimSpace(zone))
	z = strings.TrimPrefix(z, ".")
	if z == "" || len(z) > 63 || !zonePattern.MatchString(z) {
		return "", fmt.Errorf("%w: %q", ErrInvalidZone, zone)
	}
	return z, nil
}

// ParseLastPage validates a last-page argument.
func ParseLastPage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidLastPage, s, errors.Unwrap(err))
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %d is less than 1", ErrInvalidLastPage, n)
	}
	return n, nil
}
