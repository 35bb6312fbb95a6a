package commons

// SaveOutcome is the transient value published while a save runs and once it
// finishes. Phases: in-progress (InProgress set, nothing else), single-item
// terminal (Item + URI), batch terminal (Items + URIs + Saved). An empty URI on
// a terminal outcome means the repository skipped the item without raising.
type SaveOutcome struct {
	InProgress bool
	Item       *StatusItem
	URI        string
	Items      []StatusItem
	URIs       []string
	Saved      int
	Err        error
}

// Done reports a terminal outcome.
func (o SaveOutcome) Done() bool {
	return !o.InProgress
}

// DeleteOutcome mirrors SaveOutcome for deletions.
type DeleteOutcome struct {
	InProgress bool
	Item       *StatusItem
	Deleted    bool
	Items      []StatusItem
	Count      int
	Err        error
}

func (o DeleteOutcome) Done() bool {
	return !o.InProgress
}
