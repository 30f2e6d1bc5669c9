package logging

// ProgressSampler thins batch progress records to one per step percent.
// It is not safe for concurrent use; the batch calls it under its lock.
type ProgressSampler struct {
	step float64
	next float64
	done bool
}

// NewProgressSampler logs every step percent; step <= 0 means 5.
func NewProgressSampler(step float64) *ProgressSampler {
	if step <= 0 {
		step = 5
	}
	return &ProgressSampler{step: step}
}

// ShouldLog reports whether percent crossed the next threshold. The first
// call and the first call at 100 always log; later calls at 100 do not.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(percent float64) bool {
	if s == nil {
		return true
	}
	if s.done {
		return false
	}
	if percent >= 100 {
		s.done = true
		return true
	}
	if percent < s.next {
		return false
	}
	for s.next <= percent {
		s.next += s.step
	}
	return true
}
