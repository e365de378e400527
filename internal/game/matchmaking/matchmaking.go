// Package matchmaking selects battle opponents for a character and remembers
// the offered set until a battle consumes it.
package matchmaking

import (
	"sort"
)

// Defaults for Params.
const (
	DefaultLevelWindow  = 25
	DefaultPoolSize     = 10
	DefaultMinOpponents = 3
)

// Params tunes opponent selection.
type Params struct {
	// LevelWindow is the maximum absolute level difference of a candidate.
	LevelWindow int
	// PoolSize caps the ranked candidate pool.
	PoolSize int
	// MinOpponents is the result size at which bucket expansion stops.
	MinOpponents int
}

// DefaultParams returns the standard window, pool size and minimum.
func DefaultParams() Params {
	return Params{
		LevelWindow:  DefaultLevelWindow,
		PoolSize:     DefaultPoolSize,
		MinOpponents: DefaultMinOpponents,
	}
}

// Candidate is the projection of a character that selection needs.
type Candidate struct {
	ID       int64
	PlayerID int64
	Name     string
	Level    int
}

// Query describes the candidate lookup a store must perform: characters not
// owned by PlayerID with level in [Level-Window, Level+Window], ranked as Rank
// does, at most Limit rows.
type Query struct {
	PlayerID int64
	Level    int
	Window   int
	Limit    int
}

// NewQuery builds the lookup for an initiator owned by playerID at level.
func NewQuery(playerID int64, level int, p Params) Query {
	return Query{PlayerID: playerID, Level: level, Window: p.LevelWindow, Limit: p.PoolSize}
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Rank filters candidates to those eligible for q and orders them by level
// distance, then level, then ID, capped at q.Limit.
//
// Postcondition: the input slice is not modified.
func Rank(q Query, candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PlayerID == q.PlayerID || distance(c.Level, q.Level) > q.Window {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := distance(out[i].Level, q.Level), distance(out[j].Level, q.Level)
		if di != dj {
			return di < dj
		}
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit >= 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Select takes whole level-distance buckets from the front of a ranked pool
// until at least minimum candidates are chosen or the pool is exhausted.
//
// Precondition: pool is ordered as Rank orders it.
// Postcondition: the result is a prefix of pool that never splits a bucket.
func Select(level int, pool []Candidate, minimum int) []Candidate {
	n := 0
	for n < len(pool) && n < minimum {
		d := distance(pool[n].Level, level)
		for n < len(pool) && distance(pool[n].Level, level) == d {
			n++
		}
	}
	return pool[:n:n]
}

// Match ranks candidates for q and selects the offered opponents.
func Match(q Query, candidates []Candidate, minimum int) []Candidate {
	return Select(q.Level, Rank(q, candidates), minimum)
}

// IDs returns the candidate IDs in order.
func IDs(cs []Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
