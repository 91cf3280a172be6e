// Package account manages the local collection of game accounts.
//
// Records are kept in memory by a Store and persisted as one JSON document
// through a storage.Repository. Login secrets are sealed by a vault before
// they are written and opened again on load. The JSON field names match the
// backup files produced by earlier versions of the tool, so those files can
// be imported unchanged.
package account

// Default values for fields that older records may lack.
const (
	DefaultRankTier = "UNRANKED"
	DefaultLastSeen = "Unknown"
)

// Servers lists the region codes offered by the CLI.
var Servers = []string{"TR1", "EUW1", "EUN1", "NA1"}

// Account is one stored game account.
type Account struct {
	ID          string `json:"id"`
	LoginID     string `json:"login_id"`
	LoginSecret string `json:"login_pw"`

	// RiotHandle is the display identity, "Name#Tag".
	RiotHandle string `json:"riot_id"`
	Server     string `json:"server"`

	RankTier     string `json:"rank_tier"`
	RankDivision string `json:"rank_div"`
	LeaguePoints int    `json:"lp"`
	Winrate      string `json:"winrate"`

	Level       int `json:"level"`
	BlueEssence int `json:"blue_essence"`
	RiotPoints  int `json:"rp"`
	SkinCount   int `json:"skin_count"`

	// LastSeen is a local timestamp ("2006-01-02 15:04") or DefaultLastSeen.
	LastSeen string `json:"last_seen"`
	Note     string `json:"note"`
}

// ApplyDefaults fills fields that are missing from older records.
// Numeric fields already default to zero.
func ApplyDefaults(a *Account) {
	if a.RankTier == "" {
		a.RankTier = DefaultRankTier
	}
	if a.LastSeen == "" {
		a.LastSeen = DefaultLastSeen
	}
}

// Stats is what a client stats refresh writes into an account.
type Stats struct {
	Level       int
	BlueEssence int
	RiotPoints  int
	SkinCount   int

	// SkinsKnown is false when the skin inventory could not be read.
	SkinsKnown bool
}

// Rank is what a rank lookup writes into an account.
type Rank struct {
	Tier     string
	Division string
	LP       int
	Winrate  string
}
