package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/width"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/config"
)

// timeLayout matches the LastSeen layout of stored accounts.
const timeLayout = "2006-01-02 15:04"

var numbers = message.NewPrinter(language.English)

// New creates a new formatter based on configuration.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatTable:
		fallthrough
	default:
		return &tableFormatter{config: cfg}
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatSimple:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (table, json, simple)", s)
	}
}

// formatNumber formats a number with thousand separators.
func formatNumber(n int) string {
	return numbers.Sprintf("%d", n)
}

// formatRank renders tier, division and LP, e.g. "GOLD II 45 LP".
func formatRank(a account.Account) string {
	tier := a.RankTier
	if tier == "" {
		tier = account.DefaultRankTier
	}
	if tier == account.DefaultRankTier {
		return tier
	}

	s := tier
	if a.RankDivision != "" {
		s += " " + a.RankDivision
	}
	return fmt.Sprintf("%s %d LP", s, a.LeaguePoints)
}

// formatTarget renders a champion target, or NoChampion when unset.
func formatTarget(t config.ChampionTarget) string {
	if !t.IsSet() {
		return config.NoChampion
	}
	if t.Name == "" || t.Name == config.NoChampion {
		return fmt.Sprintf("#%d", t.ID)
	}
	return fmt.Sprintf("%s (%d)", t.Name, t.ID)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func phaseOf(s automation.Status) string {
	if !s.Connected {
		return "disconnected"
	}
	if s.Phase == "" {
		return "unknown"
	}
	return s.Phase
}

func statusView(s automation.Status, t automation.Targets) StatusView {
	v := StatusView{
		Connected:  s.Connected,
		Phase:      s.Phase,
		Accepts:    s.Accepts,
		Bans:       s.Bans,
		Picks:      s.Picks,
		LastHandle: s.LastHandle,
		AutoAccept: t.AutoAccept,
		AutoPick:   t.AutoPick,
		AutoBan:    t.AutoBan,
		Pick:       formatTarget(t.Pick),
		Ban:        formatTarget(t.Ban),
	}
	if !s.LastRefresh.IsZero() {
		v.LastRefresh = s.LastRefresh.Format(time.RFC3339)
	}
	return v
}

// textWidth returns the number of terminal cells s occupies.
// East Asian wide and fullwidth runes take two cells.
func textWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// pad left-aligns s in a field of w cells.
func pad(s string, w int) string {
	if d := w - textWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", textWidth(title)))
	return err
}
