package account

import (
	"sort"
	"strings"
)

// RankOrder is the base score of each tier.
var RankOrder = map[string]int{
	"CHALLENGER":  9000,
	"GRANDMASTER": 8000,
	"MASTER":      7000,
	"DIAMOND":     6000,
	"EMERALD":     5000,
	"PLATINUM":    4000,
	"GOLD":        3000,
	"SILVER":      2000,
	"BRONZE":      1000,
	"IRON":        0,
	"UNRANKED":    -1,
}

// divisionOffset is added to the tier score.
var divisionOffset = map[string]int{
	"I":   300,
	"II":  200,
	"III": 100,
	"IV":  0,
}

// Score orders accounts by rank. Unknown tiers score like UNRANKED and a
// missing or unknown division adds nothing.
func Score(a Account) int {
	base, ok := RankOrder[a.RankTier]
	if !ok {
		base = RankOrder[DefaultRankTier]
	}
	return base + divisionOffset[a.RankDivision] + a.LeaguePoints
}

// ValidTier reports whether tier is a known rank tier.
func ValidTier(tier string) bool {
	_, ok := RankOrder[tier]
	return ok
}

// ValidDivision reports whether div is empty or a known division.
func ValidDivision(div string) bool {
	if div == "" {
		return true
	}
	_, ok := divisionOffset[div]
	return ok
}

// Filter returns the accounts on server whose search text contains query,
// sorted by Score. Accounts with equal scores keep their input order.
//
// The search text is handle, tier, note and login joined by spaces and
// lowercased; the query is lowercased as well and an empty query matches
// everything. An empty server matches every server.
func Filter(accounts []Account, server, query string, descending bool) []Account {
	q := strings.ToLower(query)

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if server != "" && a.Server != server {
			continue
		}
		if q != "" && !strings.Contains(searchText(a), q) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return Score(out[i]) > Score(out[j])
		}
		return Score(out[i]) < Score(out[j])
	})

	return out
}

func searchText(a Account) string {
	return strings.ToLower(strings.Join([]string{a.RiotHandle, a.RankTier, a.Note, a.LoginID}, " "))
}
