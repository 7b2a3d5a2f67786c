package matching

import (
	"sort"
	"strings"
)

// User is an immutable snapshot of a person taking part in one matching run.
type User struct {
	ID       string
	Teaches  []string
	Learns   []string
	Rating   float64
	Timezone string
}

// Candidate is a normalised User enriched with whatever a Strategy needs to score it.
type Candidate struct {
	ID       string
	Teaches  []string
	Learns   []string
	Rating   float64
	Offset   float64
	teachSet map[string]struct{}

	teachVectors [][]float64
	learnVectors [][]float64
}

// normalizeUsers drops records without an identity, keeps the first record of a
// duplicated identity and returns candidates ordered by ID.
func normalizeUsers(users []User) []Candidate {
	seen := make(map[string]struct{}, len(users))
	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		id := strings.TrimSpace(u.ID)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		teaches := uniquePhrases(u.Teaches)
		rating := u.Rating
		if rating < 0 {
			rating = 0
		}
		candidates = append(candidates, Candidate{
			ID:       id,
			Teaches:  teaches,
			Learns:   uniquePhrases(u.Learns),
			Rating:   rating,
			Offset:   ParseTimezoneOffset(u.Timezone),
			teachSet: toSet(teaches),
		})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates
}

func uniquePhrases(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))
	for _, phrase := range raw {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			continue
		}
		if _, ok := seen[phrase]; ok {
			continue
		}
		seen[phrase] = struct{}{}
		result = append(result, phrase)
	}
	return result
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
