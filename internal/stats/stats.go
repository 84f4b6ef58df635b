// Package stats aggregates dashboard statistics over a set of CVE records.
package stats

import (
	"sort"

	"cve_bot/internal/model"
)

// Summary holds the counts shown on the dashboard.
type Summary struct {
	Total            int
	BySeverity       map[model.Severity]int
	ByStatus         map[model.Status]int
	ByTechnology     map[string]int
	WithPoc          int
	DockerDeployable int
	CurlTestable     int
	Priority         int
}

// TechCount is a technology tag with its record count.
type TechCount struct {
	Tech  string
	Count int
}

// Summarize counts recs. Records without technology tags are not counted
// in ByTechnology; a record with several tags counts once per tag.
func Summarize(recs []model.CVE) Summary {
	s := Summary{
		BySeverity:   make(map[model.Severity]int),
		ByStatus:     make(map[model.Status]int),
		ByTechnology: make(map[string]int),
	}
	for _, r := range recs {
		s.Total++
		s.BySeverity[r.Severity]++
		s.ByStatus[r.Status]++
		for _, t := range r.Technologies {
			s.ByTechnology[t]++
		}
		if r.HasPublicPoc {
			s.WithPoc++
		}
		if r.IsDockerDeployable {
			s.DockerDeployable++
		}
		if r.IsCurlTestable {
			s.CurlTestable++
		}
		if r.IsPriority {
			s.Priority++
		}
	}
	return s
}

// TopTechnologies returns up to n technologies ordered by count, then name.
func (s Summary) TopTechnologies(n int) []TechCount {
	out := make([]TechCount, 0, len(s.ByTechnology))
	for t, c := range s.ByTechnology {
		out = append(out, TechCount{Tech: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tech < out[j].Tech
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
