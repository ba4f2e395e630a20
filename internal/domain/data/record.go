package data

// Record pairs a row with the id its table assigned to it
type Record struct {
	ID  int
	Row Row
}
