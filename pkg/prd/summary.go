package prd

import "sort"

// StatusCount is the number of stories in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Summary describes a compiled document for CLI output
type Summary struct {
	Total    int           `json:"total"`
	Passing  int           `json:"passing"`
	Statuses []StatusCount `json:"statuses"`
}

// Summarize counts stories per status. Statuses are sorted by name.
func Summarize(doc *Document) Summary {
	counts := map[string]int{}
	sum := Summary{Total: len(doc.UserStories)}
	for _, s := range doc.UserStories {
		counts[s.Status]++
		if s.Passes {
			sum.Passing++
		}
	}
	for status, n := range counts {
		sum.Statuses = append(sum.Statuses, StatusCount{Status: status, Count: n})
	}
	sort.Slice(sum.Statuses, func(i, j int) bool { return sum.Statuses[i].Status < sum.Statuses[j].Status })
	return sum
}

// Count returns the number of stories with the given status
func (s Summary) Count(status string) int {
	for _, c := range s.Statuses {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}
