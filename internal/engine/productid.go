package engine

import (
	"regexp"
)

// Accepted product identifier shapes: a bare positive integer, or a
// namespaced URI-style resource reference ending in a positive integer
// (for example "gid://shopify/Product/12345").
var (
	numericIDRe  = regexp.MustCompile(`^[1-9][0-9]*$`)
	resourceIDRe = regexp.MustCompile(`^gid://[A-Za-z0-9_-]+/[A-Za-z0-9_]+/[1-9][0-9]*$`)
)

// FilterProductIDs returns only the values that are strings matching one of
// the accepted product identifier shapes. Non-conforming entries are dropped,
// not errored; malformed configuration never blocks a calculation.
func FilterProductIDs(values []any) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if numericIDRe.MatchString(s) || resourceIDRe.MatchString(s) {
			ids = append(ids, s)
		}
	}
	return ids
}
