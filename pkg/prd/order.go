package prd

import (
	"math"
	"regexp"
	"sort"
	"strconv"
)

var idSuffixRE = regexp.MustCompile(`(\d+)$`)

// IDNumber returns the trailing number of a story ID such as STORY-012.
func IDNumber(id string) (int, bool) {
	m := idSuffixRE.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func sortKey(id string) int {
	if n, ok := IDNumber(id); ok {
		return n
	}
	return math.MaxInt
}

// SortStories orders stories by priority, then by ID number. IDs without a
// number sort last within their priority; ties keep their input order.
func SortStories(stories []UserStory) {
	sort.SliceStable(stories, func(i, j int) bool {
		a, b := stories[i], stories[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return sortKey(a.ID) < sortKey(b.ID)
	})
}
