package classify

// Summary aggregates classification outcomes across a labeling run.
type Summary struct {
	Total   int            `json:"total"`
	ByParty map[string]int `json:"by_party"`
}

func NewSummary() Summary {
	return Summary{ByParty: map[string]int{}}
}

func (s *Summary) Add(party string) {
	s.Total++
	s.ByParty[party]++
}

// Merge folds another summary in, for batch-wide totals across videos.
func (s *Summary) Merge(other Summary) {
	s.Total += other.Total
	for k, v := range other.ByParty {
		s.ByParty[k] += v
	}
}

// UnlabeledRate is the share of clips no table entry matched.
func (s Summary) UnlabeledRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByParty[Unlabeled]) / float64(s.Total)
}
