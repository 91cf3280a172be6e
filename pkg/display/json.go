package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatAccounts implements Formatter.FormatAccounts.
func (f *jsonFormatter) FormatAccounts(w io.Writer, accounts []account.Account) error {
	views := make([]AccountView, len(accounts))
	for i, a := range accounts {
		views[i] = View(a)
	}
	return f.encode(w, views)
}

// FormatAccount implements Formatter.FormatAccount.
func (f *jsonFormatter) FormatAccount(w io.Writer, a account.Account) error {
	return f.encode(w, View(a))
}

// FormatStatus implements Formatter.FormatStatus.
func (f *jsonFormatter) FormatStatus(w io.Writer, status automation.Status, targets automation.Targets) error {
	return f.encode(w, statusView(status, targets))
}

// FormatRankSummary implements Formatter.FormatRankSummary.
func (f *jsonFormatter) FormatRankSummary(w io.Writer, sum rank.Summary) error {
	return f.encode(w, struct {
		Checked   int  `json:"checked"`
		Updated   int  `json:"updated"`
		Failed    int  `json:"failed"`
		Cancelled bool `json:"cancelled"`
	}{sum.Checked, sum.Updated, sum.Failed, sum.Cancelled})
}
