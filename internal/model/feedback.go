package model

// FeedbackRecord is one user submission of the settings they actually used.
type FeedbackRecord struct {
	ISO          int    `json:"iso" validate:"min=100,max=6400"`
	ShutterSpeed string `json:"shutter_speed" validate:"oneof=1/1000s 1/500s 1/250s 1/125s 1/60s"`
	NDFilter     string `json:"nd_filter" validate:"oneof=Ingen/None ND4 ND8 ND16 ND32 ND64"`
}

// Ledger holds every feedback record as three parallel sequences of equal length.
type Ledger struct {
	ISO          []int    `json:"iso"`
	ShutterSpeed []string `json:"shutter_speed"`
	NDFilter     []string `json:"nd_filter"`
}

// NewLedger returns an empty ledger with non-nil sequences.
func NewLedger() *Ledger {
	return &Ledger{
		ISO:          []int{},
		ShutterSpeed: []string{},
		NDFilter:     []string{},
	}
}

// Len returns the number of records in the ledger.
func (l *Ledger) Len() int {
	return len(l.ISO)
}

// Consistent reports whether the three sequences have the same length.
func (l *Ledger) Consistent() bool {
	return len(l.ISO) == len(l.ShutterSpeed) && len(l.ISO) == len(l.NDFilter)
}

// Append adds one record to the end of each sequence.
func (l *Ledger) Append(rec FeedbackRecord) {
	l.ISO = append(l.ISO, rec.ISO)
	l.ShutterSpeed = append(l.ShutterSpeed, rec.ShutterSpeed)
	l.NDFilter = append(l.NDFilter, rec.NDFilter)
}

// Record returns the i-th record.
func (l *Ledger) Record(i int) FeedbackRecord {
	return FeedbackRecord{
		ISO:          l.ISO[i],
		ShutterSpeed: l.ShutterSpeed[i],
		NDFilter:     l.NDFilter[i],
	}
}
