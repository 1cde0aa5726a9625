package models

// RunResult accumulates per-outcome counters for one account, and across
// accounts for the whole run.
type RunResult struct {
	Sent              int
	SkippedNoTemplate int
	SkippedEmptyBody  int
	Failed            int
	// SentUnmarked counts emails that were delivered but whose sent-marker
	// write-back failed. Tracked separately because these rows will be
	// reprocessed on the next run.
	SentUnmarked int
}

// Add merges another result into r.
func (r *RunResult) Add(other RunResult) {
	r.Sent += other.Sent
	r.SkippedNoTemplate += other.SkippedNoTemplate
	r.SkippedEmptyBody += other.SkippedEmptyBody
	r.Failed += other.Failed
	r.SentUnmarked += other.SentUnmarked
}

// Total returns the number of applicants accounted for.
func (r RunResult) Total() int {
	return r.Sent + r.SkippedNoTemplate + r.SkippedEmptyBody + r.Failed + r.SentUnmarked
}
