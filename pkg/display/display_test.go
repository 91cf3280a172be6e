package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/config"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

func sampleAccounts() []account.Account {
	return []account.Account{
		{
			ID:           "4f6c2a1e-9a51-4f8e-a2ef-0c9d5b8f1d11",
			LoginID:      "mainlogin",
			LoginSecret:  "hunter2",
			RiotHandle:   "Çılgın Şövalye#TR1",
			Server:       "TR1",
			RankTier:     "GOLD",
			RankDivision: "II",
			LeaguePoints: 45,
			Winrate:      "54%",
			Level:        147,
			BlueEssence:  30500,
			RiotPoints:   1350,
			SkinCount:    42,
			LastSeen:     "2025-03-01 18:30",
			Note:         "main",
		},
		{
			ID:         "short",
			LoginID:    "smurf",
			RiotHandle: "Smurf#EUW",
			Server:     "EUW1",
			RankTier:   account.DefaultRankTier,
			LastSeen:   account.DefaultLastSeen,
		},
	}
}

func sampleStatus() (automation.Status, automation.Targets) {
	return automation.Status{
			Connected:   true,
			Phase:       "ChampSelect",
			Accepts:     3,
			Bans:        1,
			Picks:       2,
			LastRefresh: time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC),
			LastHandle:  "Main#EUW",
		}, automation.Targets{
			AutoAccept: true,
			AutoPick:   true,
			Pick:       config.ChampionTarget{ID: 103, Name: "Ahri"},
			Ban:        config.ChampionTarget{Name: config.NoChampion},
		}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
		want   string // Type name
	}{
		{"default format (table)", Config{}, "*display.tableFormatter"},
		{"table format", Config{Format: FormatTable}, "*display.tableFormatter"},
		{"json format", Config{Format: FormatJSON}, "*display.jsonFormatter"},
		{"simple format", Config{Format: FormatSimple}, "*display.simpleFormatter"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			formatter := New(tt.config)
			if formatter == nil {
				t.Fatal("New() returned nil")
			}

			got := fmt.Sprintf("%T", formatter)
			if got != tt.want {
				t.Errorf("New() type = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" simple ", FormatSimple, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTableFormatter_FormatAccounts(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable, ShowNotes: true})

	var buf bytes.Buffer
	if err := formatter.FormatAccounts(&buf, sampleAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"4f6c2a1e", "Çılgın Şövalye#TR1", "GOLD II 45 LP", "30,500", "1,350", "UNRANKED", "Note", "main"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q", want)
		}
	}
	if strings.Contains(output, "hunter2") {
		t.Error("Output leaks login secret")
	}

	// Columns line up by display width, not byte length.
	lines := strings.Split(output, "\n")
	header, first, second := lines[0], lines[2], lines[3]
	col := strings.Index(header, "Server")
	if textWidth(first[:strings.Index(first, "  TR1 ")+2]) != col {
		t.Errorf("misaligned row %q under %q", first, header)
	}
	if strings.Index(second, "EUW1") != col {
		t.Errorf("misaligned row %q under %q", second, header)
	}
}

func TestTableFormatter_FormatAccount(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable})

	var buf bytes.Buffer
	if err := formatter.FormatAccount(&buf, sampleAccounts()[0]); err != nil {
		t.Fatalf("FormatAccount() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"mainlogin", "54%", "Skins", "42", "2025-03-01 18:30"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q", want)
		}
	}
	if strings.Contains(output, "hunter2") {
		t.Error("Output leaks login secret")
	}
}

func TestTableFormatter_FormatStatus(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatTable})
	status, targets := sampleStatus()

	var buf bytes.Buffer
	if err := formatter.FormatStatus(&buf, status, targets); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"ChampSelect", "Ahri (103)", "Main#EUW", "None"} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q", want)
		}
	}

	buf.Reset()
	if err := formatter.FormatStatus(&buf, automation.Status{}, automation.Targets{}); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}
	if !strings.Contains(buf.String(), "disconnected") || !strings.Contains(buf.String(), "never") {
		t.Errorf("unexpected idle status output:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatJSON, Compact: true})

	var buf bytes.Buffer
	if err := formatter.FormatAccounts(&buf, sampleAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if strings.Contains(buf.String(), "hunter2") || strings.Contains(buf.String(), "login_pw") {
		t.Error("JSON output leaks login secret")
	}

	var views []AccountView
	if err := json.Unmarshal(buf.Bytes(), &views); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(views) != 2 || views[0].RiotHandle != "Çılgın Şövalye#TR1" || views[0].BlueEssence != 30500 {
		t.Errorf("unexpected views: %+v", views)
	}

	buf.Reset()
	status, targets := sampleStatus()
	if err := formatter.FormatStatus(&buf, status, targets); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}
	var sv StatusView
	if err := json.Unmarshal(buf.Bytes(), &sv); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !sv.Connected || sv.Picks != 2 || sv.Pick != "Ahri (103)" || sv.LastRefresh != "2025-03-01T18:30:00Z" {
		t.Errorf("unexpected status view: %+v", sv)
	}

	buf.Reset()
	if err := formatter.FormatRankSummary(&buf, rank.Summary{Checked: 4, Updated: 2, Failed: 2}); err != nil {
		t.Fatalf("FormatRankSummary() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"checked":4,"updated":2,"failed":2,"cancelled":false}` {
		t.Errorf("unexpected summary JSON: %s", buf.String())
	}
}

func TestSimpleFormatter(t *testing.T) {
	t.Parallel()

	formatter := New(Config{Format: FormatSimple})

	var buf bytes.Buffer
	if err := formatter.FormatAccounts(&buf, sampleAccounts()); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "short Smurf#EUW [EUW1] UNRANKED") {
		t.Errorf("unexpected line %q", lines[1])
	}

	buf.Reset()
	status, targets := sampleStatus()
	if err := formatter.FormatStatus(&buf, status, targets); err != nil {
		t.Fatalf("FormatStatus() error = %v", err)
	}
	want := "Phase: ChampSelect | Accept: on | Pick: on Ahri (103) | Ban: off None | Actions: 3/1/2\n"
	if buf.String() != want {
		t.Errorf("FormatStatus() = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := formatter.FormatRankSummary(&buf, rank.Summary{Checked: 1, Cancelled: true}); err != nil {
		t.Fatalf("FormatRankSummary() error = %v", err)
	}
	if !strings.Contains(buf.String(), "cancelled") {
		t.Errorf("summary missing cancel marker: %q", buf.String())
	}
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int
		want string
	}{
		{"zero", 0, "0"},
		{"small", 123, "123"},
		{"thousand", 1000, "1,000"},
		{"ten thousand", 12345, "12,345"},
		{"million", 1234567, "1,234,567"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := formatNumber(tt.n)
			if got != tt.want {
				t.Errorf("formatNumber(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatRank(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a    account.Account
		want string
	}{
		{account.Account{}, "UNRANKED"},
		{account.Account{RankTier: "UNRANKED", LeaguePoints: 10}, "UNRANKED"},
		{account.Account{RankTier: "MASTER", LeaguePoints: 212}, "MASTER 212 LP"},
		{account.Account{RankTier: "IRON", RankDivision: "IV"}, "IRON IV 0 LP"},
	}

	for _, tt := range tests {
		if got := formatRank(tt.a); got != tt.want {
			t.Errorf("formatRank(%+v) = %q, want %q", tt.a, got, tt.want)
		}
	}
}

func TestTextWidth(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		"Ahri":    4,
		"Şövalye": 7,
		"한국":      4,
		"":        0,
	}
	for s, want := range tests {
		if got := textWidth(s); got != want {
			t.Errorf("textWidth(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestCompactMode(t *testing.T) {
	t.Parallel()

	a := sampleAccounts()[0]

	var buf1, buf2 bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatAccount(&buf1, a); err != nil {
		t.Fatalf("FormatAccount() error = %v", err)
	}
	if err := New(Config{Format: FormatTable, Compact: true}).FormatAccount(&buf2, a); err != nil {
		t.Fatalf("FormatAccount() error = %v", err)
	}

	if len(buf2.String()) >= len(buf1.String()) {
		t.Error("Compact mode did not reduce output length")
	}
}

func TestEmptyData(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := New(Config{Format: FormatTable}).FormatAccounts(&buf, nil); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No accounts") {
		t.Error("Empty account list should show 'No accounts'")
	}

	buf.Reset()
	if err := New(Config{Format: FormatJSON}).FormatAccounts(&buf, nil); err != nil {
		t.Fatalf("FormatAccounts() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON list = %q", buf.String())
	}
}
