package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *simpleFormatter) FormatAccounts(w io.Writer, accounts []account.Account) error {
	for _, a := range accounts {
		line := fmt.Sprintf("%s %s [%s] %s | lvl %d | BE %s | RP %s",
			shortID(a.ID),
			a.RiotHandle,
			a.Server,
			formatRank(a),
			a.Level,
			formatNumber(a.BlueEssence),
			formatNumber(a.RiotPoints))
		if f.config.ShowNotes && a.Note != "" {
			line += " | " + a.Note
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatAccount implements Formatter.FormatAccount.
func (f *simpleFormatter) FormatAccount(w io.Writer, a account.Account) error {
	_, err := fmt.Fprintf(w, "%s %s (%s) [%s] %s | lvl %d | BE %s | RP %s | skins %d | seen %s\n",
		a.ID,
		a.RiotHandle,
		a.LoginID,
		a.Server,
		formatRank(a),
		a.Level,
		formatNumber(a.BlueEssence),
		formatNumber(a.RiotPoints),
		a.SkinCount,
		a.LastSeen)
	return err
}

// FormatStatus implements Formatter.FormatStatus.
func (f *simpleFormatter) FormatStatus(w io.Writer, status automation.Status, targets automation.Targets) error {
	_, err := fmt.Fprintf(w, "Phase: %s | Accept: %s | Pick: %s %s | Ban: %s %s | Actions: %d/%d/%d\n",
		phaseOf(status),
		onOff(targets.AutoAccept),
		onOff(targets.AutoPick),
		formatTarget(targets.Pick),
		onOff(targets.AutoBan),
		formatTarget(targets.Ban),
		status.Accepts,
		status.Bans,
		status.Picks)
	return err
}

// FormatRankSummary implements Formatter.FormatRankSummary.
func (f *simpleFormatter) FormatRankSummary(w io.Writer, sum rank.Summary) error {
	line := fmt.Sprintf("Checked: %d | Updated: %d | Failed: %d", sum.Checked, sum.Updated, sum.Failed)
	if sum.Cancelled {
		line += " | cancelled"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// shortID returns the first block of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
