// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// Severity is the CVSS-derived severity bucket of a CVE.
type Severity string

// Supported severities, most severe first.
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists every severity in display order.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// IsValid reports whether s is one of the known severities.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ParseSeverity converts user input into a Severity, ignoring case.
func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	return sev, sev.IsValid()
}

// Status is the triage workflow stage of a CVE.
type Status string

// Supported workflow statuses.
const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusUnlisted   Status = "unlisted"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusDone, StatusUnlisted}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone, StatusUnlisted:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status, ignoring case.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// CVE is a vulnerability record tracked by the triage dashboard.
type CVE struct {
	ID                 string
	Title              string
	Description        string
	Severity           Severity
	Technologies       []string
	Status             Status
	HasPublicPoc       bool
	IsDockerDeployable bool
	IsCurlTestable     bool
	IsPriority         bool
	URL                string
	Source             string
	PublishedAt        time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasTechnology reports whether the record is tagged with tech.
func (c *CVE) HasTechnology(tech string) bool {
	for _, t := range c.Technologies {
		if t == tech {
			return true
		}
	}
	return false
}

// Subscription marks a chat that receives pushes for new matching CVEs.
type Subscription struct {
	ChatID    int64
	CreatedAt time.Time
}

// FeedSource is an advisory feed polled by the scheduler. Technologies
// are tagged onto every record the feed yields.
type FeedSource struct {
	Name         string
	URL          string
	Technologies []string
}
