package locxpath

import "time"

// Stats aggregates a run's results.
type Stats struct {
	URLs                  int
	SuccessfulURLs        int
	FailedURLs            int
	TotalElements         int
	SuccessfulExtractions int
	FailedExtractions     int
	PromptTokens          int
	AverageDuration       time.Duration
	WallTime              time.Duration
	QPS                   float64
}

// ComputeStats summarizes results. wall is the elapsed time of the whole
// run and is used for the overall QPS (zero wall time gives zero QPS).
func ComputeStats(results []*URLResult, wall time.Duration) Stats {
	s := Stats{URLs: len(results), WallTime: wall}

	var total time.Duration
	for _, r := range results {
		if r.Succeeded() {
			s.SuccessfulURLs++
		} else {
			s.FailedURLs++
		}
		s.TotalElements += r.Summary.TotalElements
		s.SuccessfulExtractions += r.Summary.SuccessfulExtractions
		s.FailedExtractions += r.Summary.FailedExtractions
		s.PromptTokens += r.PromptTokens
		total += r.Duration
	}

	if s.URLs > 0 {
		s.AverageDuration = total / time.Duration(s.URLs)
	}
	if wall > 0 {
		s.QPS = float64(s.URLs) / wall.Seconds()
	}
	return s
}

// URLSuccessRate returns the share of URLs that succeeded, in percent.
func (s Stats) URLSuccessRate() float64 {
	return percent(s.SuccessfulURLs, s.URLs)
}

// URLFailureRate returns the share of URLs that failed, in percent.
func (s Stats) URLFailureRate() float64 {
	return percent(s.FailedURLs, s.URLs)
}

// ExtractionRate returns the share of elements that were found, in percent.
func (s Stats) ExtractionRate() float64 {
	return percent(s.SuccessfulExtractions, s.TotalElements)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
