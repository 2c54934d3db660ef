package orchestrator

// Report summarizes one run. Slices hold recording numbers in the order the
// run visited them.
type Report struct {
	RunID     string
	Succeeded []int
	Skipped   []int
	Failed    []int
	// FailureReasons explains each entry in Failed.
	FailureReasons map[int]string
	// Unmerged lists recordings whose fragments were downloaded but are
	// still split, either because the merge tool is unavailable or a merge
	// attempt failed.
	Unmerged []int
}

// OK reports whether the run completed with zero failures.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

func (r *Report) fail(num int, reason string) {
	r.Failed = append(r.Failed, num)
	if r.FailureReasons == nil {
		r.FailureReasons = make(map[int]string)
	}
	r.FailureReasons[num] = reason
}
