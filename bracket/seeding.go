package bracket

// seedOrder returns the serpentine placement of seed indices into the
// bracketSize slots of round 1. Consecutive slot pairs form the round-1
// games, so for size 8 the order is [0 7 3 4 1 6 2 5]: seed 1 meets the
// lowest seed, and seeds 1 and 2 sit in opposite halves.
//
// Every pair holds exactly one seed below bracketSize/2. Because a
// bracket of size 2^k holds more than 2^(k-1) teams, that seed always
// exists, so a pair can never be empty and byes (seed indices beyond
// the team count) land one per pair on the lowest seeds.
func seedOrder(bracketSize int) []int {
	order := []int{0}
	for len(order) < bracketSize {
		next := make([]int, 0, len(order)*2)
		count := len(order) * 2
		for _, seed := range order {
			next = append(next, seed, count-1-seed)
		}
		order = next
	}
	return order
}
