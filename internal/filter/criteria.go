// Package filter implements the CVE filter criteria, their composition and
// the record matching engine.
package filter

import "cve_bot/internal/model"

// Field names a multi-value criteria dimension.
type Field string

// Multi-value fields.
const (
	FieldSeverity   Field = "severity"
	FieldTechnology Field = "technology"
	FieldStatus     Field = "status"
)

// Flag names a boolean criteria dimension.
type Flag string

// Boolean flags. An unset flag imposes no constraint.
const (
	FlagPublicPoc Flag = "poc"
	FlagDocker    Flag = "docker"
	FlagCurl      Flag = "curl"
	FlagPriority  Flag = "priority"
	FlagHideDone  Flag = "hide_done"
)

// Flags lists every flag in display order.
var Flags = []Flag{FlagPublicPoc, FlagDocker, FlagCurl, FlagPriority, FlagHideDone}

// Criteria is an immutable snapshot of the dashboard filter.
// Fields are combined with AND; each set is an OR over its members.
type Criteria struct {
	Severity   Set[model.Severity]
	Technology Set[string]
	Status     Set[model.Status]

	HasPublicPoc       bool
	IsDockerDeployable bool
	IsCurlTestable     bool
	IsPriority         bool
	HideDone           bool
}

// ToggleSetMember returns a copy of c with value added to (included) or
// removed from the named field's set. Unknown fields leave c unchanged.
func (c Criteria) ToggleSetMember(field Field, value string, included bool) Criteria {
	switch field {
	case FieldSeverity:
		c.Severity = toggle(c.Severity, model.Severity(value), included)
	case FieldTechnology:
		c.Technology = toggle(c.Technology, value, included)
	case FieldStatus:
		c.Status = toggle(c.Status, model.Status(value), included)
	}
	return c
}

func toggle[T ~string](s Set[T], v T, included bool) Set[T] {
	if included {
		return s.With(v)
	}
	return s.Without(v)
}

// SetFlag returns a copy of c with a single flag replaced.
func (c Criteria) SetFlag(flag Flag, value bool) Criteria {
	switch flag {
	case FlagPublicPoc:
		c.HasPublicPoc = value
	case FlagDocker:
		c.IsDockerDeployable = value
	case FlagCurl:
		c.IsCurlTestable = value
	case FlagPriority:
		c.IsPriority = value
	case FlagHideDone:
		c.HideDone = value
	}
	return c
}

// FlagValue returns the current value of flag.
func (c Criteria) FlagValue(flag Flag) bool {
	switch flag {
	case FlagPublicPoc:
		return c.HasPublicPoc
	case FlagDocker:
		return c.IsDockerDeployable
	case FlagCurl:
		return c.IsCurlTestable
	case FlagPriority:
		return c.IsPriority
	case FlagHideDone:
		return c.HideDone
	}
	return false
}

// Clear returns the canonical empty criteria.
func Clear() Criteria {
	return Criteria{}
}

// IsEmpty reports whether c imposes no constraint at all.
func (c Criteria) IsEmpty() bool {
	return c.Equal(Criteria{})
}

// Equal reports whether both snapshots describe the same filter.
func (c Criteria) Equal(o Criteria) bool {
	return c.Severity.Equal(o.Severity) &&
		c.Technology.Equal(o.Technology) &&
		c.Status.Equal(o.Status) &&
		c.HasPublicPoc == o.HasPublicPoc &&
		c.IsDockerDeployable == o.IsDockerDeployable &&
		c.IsCurlTestable == o.IsCurlTestable &&
		c.IsPriority == o.IsPriority &&
		c.HideDone == o.HideDone
}
