package account

// MergeStats applies a client stats read to a.
//
// The level always overwrites. A wallet read where blue essence came back
// as zero is treated as a failed read: if riot points are zero too both
// previous balances are kept, otherwise only the previous blue essence is
// kept and the new riot points are accepted. The skin count is updated
// only when the inventory was readable.
func MergeStats(a Account, s Stats) Account {
	a.Level = s.Level

	switch {
	case s.BlueEssence == 0 && s.RiotPoints == 0:
		// keep both
	case s.BlueEssence == 0:
		a.RiotPoints = s.RiotPoints
	default:
		a.BlueEssence = s.BlueEssence
		a.RiotPoints = s.RiotPoints
	}

	if s.SkinsKnown {
		a.SkinCount = s.SkinCount
	}

	return a
}

// ApplyRank writes a rank lookup result into a. Empty tiers become
// DefaultRankTier.
func ApplyRank(a Account, r Rank) Account {
	a.RankTier = r.Tier
	if a.RankTier == "" {
		a.RankTier = DefaultRankTier
	}
	a.RankDivision = r.Division
	a.LeaguePoints = r.LP
	a.Winrate = r.Winrate
	return a
}
