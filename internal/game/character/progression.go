package character

// ExpForLevel is the experience needed to advance from level to level+1.
func ExpForLevel(level int) int {
	return level * level * 40
}

// AddExp grants amount experience, stepping through as many level-ups as the
// total allows, and returns the number of levels gained.
//
// Non-positive amounts are ignored.
// Precondition: c.Level >= 1; a smaller level is raised to 1.
// Postcondition: c.Experience < ExpForLevel(c.Level).
func AddExp(c *Character, amount int) int {
	if amount <= 0 {
		return 0
	}
	if c.Level < 1 {
		c.Level = 1
	}
	c.Experience += amount
	gained := 0
	for c.Experience >= ExpForLevel(c.Level) {
		c.Experience -= ExpForLevel(c.Level)
		c.Level++
		gained++
	}
	return gained
}
