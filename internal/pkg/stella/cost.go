package stella

// Analysis pricing. Cost must be computable client-side before commit, so it
// is a pure function of the competitor count with no remote dependency.
const (
	BaseCost          int64 = 10
	PerCompetitorCost int64 = 5
	MaxCompetitors          = 5
)

// ClampCompetitorCount limits a requested competitor count to [0, MaxCompetitors].
func ClampCompetitorCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxCompetitors {
		return MaxCompetitors
	}
	return n
}

// CalculateCost returns the Stella cost of an analysis with the given number
// of competitors. Total function, never negative.
func CalculateCost(competitorCount int) int64 {
	n := int64(ClampCompetitorCount(competitorCount))
	return BaseCost + n*PerCompetitorCost
}
