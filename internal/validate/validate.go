package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"sellerdash/internal/domain"
)

// MaxQueryLen bounds free-text search input, in runes.
const MaxQueryLen = 100

const maxPage = 10000

var (
	// Marketplace item ids look like MLB1234567890; pure numbers are accepted too.
	reItemID = regexp.MustCompile(`^[A-Za-z]{0,4}[0-9]{1,20}$`)
	// Control characters are rejected; everything printable is a valid query.
	reCtrl = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// Q validates a search query: trims and truncates to MaxQueryLen. An empty
// result is valid and means "show my items".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if reCtrl.MatchString(s) {
		return "", false
	}
	if utf8.RuneCountInString(s) > MaxQueryLen {
		s = strings.TrimSpace(string([]rune(s)[:MaxQueryLen]))
	}
	return s, true
}

// Sort returns s if it is a known sort key, domain.SortRelevance otherwise.
func Sort(s string) string {
	s = strings.TrimSpace(s)
	for _, key := range domain.SortOrders {
		if s == key {
			return s
		}
	}
	return domain.SortRelevance
}

// Page parses a zero-based page index. Missing or invalid input is page 0.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return min(n, maxPage)
}

// ItemID validates a marketplace item identifier.
func ItemID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reItemID.MatchString(s)
}
