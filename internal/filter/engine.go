package filter

import "cve_bot/internal/model"

// Match checks whether a record passes the given criteria.
// Empty criteria always pass. Each non-empty set requires membership,
// each true flag requires the matching attribute. HideDone is applied
// after the status test and removes done records even if "done" is
// selected in the status set.
func Match(rec model.CVE, c Criteria) bool {
	if !c.Severity.Admits(rec.Severity) {
		return false
	}
	if !c.Technology.AdmitsAny(rec.Technologies) {
		return false
	}
	if !c.Status.Admits(rec.Status) {
		return false
	}
	if c.HasPublicPoc && !rec.HasPublicPoc {
		return false
	}
	if c.IsDockerDeployable && !rec.IsDockerDeployable {
		return false
	}
	if c.IsCurlTestable && !rec.IsCurlTestable {
		return false
	}
	if c.IsPriority && !rec.IsPriority {
		return false
	}
	if c.HideDone && rec.Status == model.StatusDone {
		return false
	}
	return true
}

// FilterRecords returns the records that match c, preserving order.
func FilterRecords(recs []model.CVE, c Criteria) []model.CVE {
	var matched []model.CVE
	for _, r := range recs {
		if Match(r, c) {
			matched = append(matched, r)
		}
	}
	return matched
}
