package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *tableFormatter) FormatAccounts(w io.Writer, accounts []account.Account) error {
	header := []string{"ID", "Riot ID", "Server", "Rank", "Level", "BE", "RP", "Skins", "Last Seen"}
	if f.config.ShowNotes {
		header = append(header, "Note")
	}

	rows := make([][]string, len(accounts))
	for i, a := range accounts {
		row := []string{
			shortID(a.ID),
			a.RiotHandle,
			a.Server,
			formatRank(a),
			fmt.Sprintf("%d", a.Level),
			formatNumber(a.BlueEssence),
			formatNumber(a.RiotPoints),
			fmt.Sprintf("%d", a.SkinCount),
			a.LastSeen,
		}
		if f.config.ShowNotes {
			row = append(row, a.Note)
		}
		rows[i] = row
	}

	return f.writeTable(w, header, rows)
}

// FormatAccount implements Formatter.FormatAccount.
func (f *tableFormatter) FormatAccount(w io.Writer, a account.Account) error {
	if err := writeHeader(w, a.RiotHandle, f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"ID", a.ID},
		{"Login", a.LoginID},
		{"Server", a.Server},
		{"Rank", formatRank(a)},
		{"Winrate", a.Winrate},
		{"Level", fmt.Sprintf("%d", a.Level)},
		{"Blue Essence", formatNumber(a.BlueEssence)},
		{"Riot Points", formatNumber(a.RiotPoints)},
		{"Skins", fmt.Sprintf("%d", a.SkinCount)},
		{"Last Seen", a.LastSeen},
		{"Note", a.Note},
	}

	return f.writeTable(w, []string{"Field", "Value"}, rows)
}

// FormatStatus implements Formatter.FormatStatus.
func (f *tableFormatter) FormatStatus(w io.Writer, status automation.Status, targets automation.Targets) error {
	if err := writeHeader(w, "Automation Status", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Client", phaseOf(status)},
		{"Auto Accept", onOff(targets.AutoAccept)},
		{"Auto Pick", onOff(targets.AutoPick) + "  " + formatTarget(targets.Pick)},
		{"Auto Ban", onOff(targets.AutoBan) + "  " + formatTarget(targets.Ban)},
		{"Accepted", fmt.Sprintf("%d", status.Accepts)},
		{"Banned", fmt.Sprintf("%d", status.Bans)},
		{"Picked", fmt.Sprintf("%d", status.Picks)},
		{"Last Refresh", formatTime(status.LastRefresh)},
	}
	if status.LastHandle != "" {
		rows = append(rows, []string{"Signed In", status.LastHandle})
	}

	return f.writeTable(w, []string{"Setting", "Value"}, rows)
}

// FormatRankSummary implements Formatter.FormatRankSummary.
func (f *tableFormatter) FormatRankSummary(w io.Writer, sum rank.Summary) error {
	if err := writeHeader(w, "Rank Check", f.config.Compact); err != nil {
		return err
	}

	rows := [][]string{
		{"Checked", fmt.Sprintf("%d", sum.Checked)},
		{"Updated", fmt.Sprintf("%d", sum.Updated)},
		{"Failed", fmt.Sprintf("%d", sum.Failed)},
	}
	if sum.Cancelled {
		rows = append(rows, []string{"Cancelled", "yes"})
	}

	return f.writeTable(w, []string{"Metric", "Value"}, rows)
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No accounts")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = textWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && textWidth(cell) > widths[i] {
				widths[i] = textWidth(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}

	return nil
}

// writeRow writes a single table row. The last cell is not padded.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	sep := "  "
	if f.config.Compact {
		sep = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(sep)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
		} else {
			b.WriteString(pad(cell, widths[i]))
		}
	}

	_, err := fmt.Fprintln(w, b.String())
	return err
}
