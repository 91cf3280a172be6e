// Package display provides output formatting for accounts and engine state.
//
// It supports multiple output formats (table, JSON, simple text). Login
// secrets are never part of any output.
package display

import (
	"io"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in aligned columns.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays one line per record.
	FormatSimple Format = "simple"
)

// Formatter formats and displays accounts and engine state.
type Formatter interface {
	// FormatAccounts writes a list of accounts, one row each.
	FormatAccounts(w io.Writer, accounts []account.Account) error

	// FormatAccount writes every field of a single account except its
	// login secret.
	FormatAccount(w io.Writer, a account.Account) error

	// FormatStatus writes the engine status together with its targets.
	FormatStatus(w io.Writer, status automation.Status, targets automation.Targets) error

	// FormatRankSummary writes the outcome of a bulk rank check.
	FormatRankSummary(w io.Writer, sum rank.Summary) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// ShowNotes adds the note column to account lists.
	ShowNotes bool

	// Compact enables compact output (less whitespace).
	// Default: false.
	Compact bool
}

// AccountView is the public part of an account.
type AccountView struct {
	ID         string `json:"id"`
	LoginID    string `json:"login_id"`
	RiotHandle string `json:"riot_id"`
	Server     string `json:"server"`

	Tier     string `json:"rank_tier"`
	Division string `json:"rank_div,omitempty"`
	LP       int    `json:"lp"`
	Winrate  string `json:"winrate,omitempty"`

	Level       int `json:"level"`
	BlueEssence int `json:"blue_essence"`
	RiotPoints  int `json:"rp"`
	SkinCount   int `json:"skin_count"`

	LastSeen string `json:"last_seen"`
	Note     string `json:"note,omitempty"`
}

// View strips the login secret from a.
func View(a account.Account) AccountView {
	return AccountView{
		ID:          a.ID,
		LoginID:     a.LoginID,
		RiotHandle:  a.RiotHandle,
		Server:      a.Server,
		Tier:        a.RankTier,
		Division:    a.RankDivision,
		LP:          a.LeaguePoints,
		Winrate:     a.Winrate,
		Level:       a.Level,
		BlueEssence: a.BlueEssence,
		RiotPoints:  a.RiotPoints,
		SkinCount:   a.SkinCount,
		LastSeen:    a.LastSeen,
		Note:        a.Note,
	}
}

// StatusView is the JSON shape of FormatStatus.
type StatusView struct {
	Connected   bool   `json:"connected"`
	Phase       string `json:"phase,omitempty"`
	Accepts     int    `json:"accepts"`
	Bans        int    `json:"bans"`
	Picks       int    `json:"picks"`
	LastRefresh string `json:"last_refresh,omitempty"`
	LastHandle  string `json:"last_handle,omitempty"`

	AutoAccept bool   `json:"auto_accept"`
	AutoPick   bool   `json:"auto_pick"`
	AutoBan    bool   `json:"auto_ban"`
	Pick       string `json:"pick"`
	Ban        string `json:"ban"`
}
