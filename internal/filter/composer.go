package filter

// Composer owns the current criteria snapshot of a dashboard view.
// Every mutation replaces the snapshot; previously returned values are
// never modified. The composer performs no I/O itself: Apply and Clear
// only notify the callbacks.
type Composer struct {
	criteria Criteria

	// OnApply is invoked with the current snapshot when the user asks
	// for the query to be (re)issued.
	OnApply func(Criteria)
	// OnClear is invoked after the criteria are reset.
	OnClear func()
}

// NewComposer returns a composer starting from initial.
func NewComposer(initial Criteria) *Composer {
	return &Composer{criteria: initial}
}

// Criteria returns the current snapshot.
func (c *Composer) Criteria() Criteria {
	return c.criteria
}

// Toggle adds or removes value from field and returns the new snapshot.
func (c *Composer) Toggle(field Field, value string, included bool) Criteria {
	c.criteria = c.criteria.ToggleSetMember(field, value, included)
	return c.criteria
}

// SetFlag replaces one flag and returns the new snapshot.
func (c *Composer) SetFlag(flag Flag, value bool) Criteria {
	c.criteria = c.criteria.SetFlag(flag, value)
	return c.criteria
}

// Apply hands the current snapshot to OnApply.
func (c *Composer) Apply() {
	if c.OnApply != nil {
		c.OnApply(c.criteria)
	}
}

// Clear resets the snapshot to the empty criteria and notifies OnClear.
func (c *Composer) Clear() {
	c.criteria = Clear()
	if c.OnClear != nil {
		c.OnClear()
	}
}
