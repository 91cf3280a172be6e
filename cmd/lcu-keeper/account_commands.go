package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/display"
	"github.com/0xmhha/lcu-keeper/pkg/rank"
)

// accountCommand handles account management subcommands.
type accountCommand struct {
	configPath string
}

// Execute runs the account command.
func (c *accountCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "list":
		return c.runList(subargs)
	case "add":
		return c.runAdd(subargs)
	case "edit":
		return c.runEdit(subargs)
	case "rank":
		return c.runRank(subargs)
	case "show":
		return c.runShow(subargs)
	case "delete":
		return c.runDelete(subargs)
	case "export":
		return c.runExport(subargs)
	case "import":
		return c.runImport(subargs)
	case "restore":
		return c.runRestore(subargs)
	case "check":
		return c.runCheck(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown account subcommand: %s", subcommand)
	}
}

// listOptions holds parsed options for the list command.
type listOptions struct {
	server    string
	query     string
	ascending bool
	format    display.Format
	notes     bool
	compact   bool
}

func parseListOptions(args []string) (*listOptions, error) {
	fs := flag.NewFlagSet("account list", flag.ContinueOnError)
	server := fs.String("server", "", "only accounts on this server (e.g. EUW1)")
	query := fs.String("query", "", "search handle, tier, note and login")
	asc := fs.Bool("asc", false, "lowest rank first")
	format := fs.String("format", "table", "output format (table, json, simple)")
	notes := fs.Bool("notes", false, "show notes")
	compact := fs.Bool("compact", false, "compact output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f, err := display.ParseFormat(*format)
	if err != nil {
		return nil, err
	}

	return &listOptions{
		server:    strings.ToUpper(strings.TrimSpace(*server)),
		query:     *query,
		ascending: *asc,
		format:    f,
		notes:     *notes,
		compact:   *compact,
	}, nil
}

// runList lists accounts sorted by rank.
func (c *accountCommand) runList(args []string) error {
	opts, err := parseListOptions(args)
	if err != nil {
		return err
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	accounts := a.store.Filter(opts.server, opts.query, !opts.ascending)
	formatter := display.New(display.Config{
		Format:    opts.format,
		ShowNotes: opts.notes,
		Compact:   opts.compact,
	})
	return formatter.FormatAccounts(os.Stdout, accounts)
}

// accountFields holds the editable fields given on the command line.
// set records which flags were passed explicitly.
type accountFields struct {
	login    string
	handle   string
	server   string
	note     string
	password string
	set      map[string]bool
}

func newAccountFlagSet(name string, f *accountFields) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.login, "login", "", "login name")
	fs.StringVar(&f.handle, "handle", "", "riot id, Name#Tag")
	fs.StringVar(&f.server, "server", "", "server (TR1, EUW1, EUN1, NA1)")
	fs.StringVar(&f.note, "note", "", "free-form note")
	fs.StringVar(&f.password, "password", "", "login password (prompted when omitted)")
	return fs
}

func (f *accountFields) collect(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	f.server = strings.ToUpper(strings.TrimSpace(f.server))
}

func parseAddArgs(args []string) (*accountFields, error) {
	f := &accountFields{}
	fs := newAccountFlagSet("account add", f)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.collect(fs)

	if strings.TrimSpace(f.login) == "" || strings.TrimSpace(f.handle) == "" {
		return nil, errors.New("usage: lcu-keeper account add -login L -handle Name#Tag [-server S] [-note N] [-password P]")
	}
	return f, nil
}

// runAdd stores a new account.
func (c *accountCommand) runAdd(args []string) error {
	f, err := parseAddArgs(args)
	if err != nil {
		return err
	}

	if f.password == "" {
		if f.password, err = readSecret("Password: "); err != nil {
			return fmt.Errorf("no -password given and cannot prompt: %w", err)
		}
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := a.store.Add(account.Account{
		LoginID:     f.login,
		LoginSecret: f.password,
		RiotHandle:  f.handle,
		Server:      f.server,
		Note:        f.note,
	})
	if err != nil {
		return fmt.Errorf("failed to add account: %w", err)
	}

	fmt.Printf("Added %s (%s)\n", acc.RiotHandle, acc.ID)
	return nil
}

func parseEditArgs(args []string) (string, *accountFields, error) {
	f := &accountFields{}
	fs := newAccountFlagSet("account edit", f)
	id, err := parseWithID(fs, args)
	if err != nil {
		return "", nil, err
	}
	f.collect(fs)

	if id == "" || len(f.set) == 0 {
		return "", nil, errors.New("usage: lcu-keeper account edit ID [-login L] [-handle H] [-server S] [-note N] [-password P]")
	}
	return id, f, nil
}

// runEdit changes the given fields of an account.
func (c *accountCommand) runEdit(args []string) error {
	ref, f, err := parseEditArgs(args)
	if err != nil {
		return err
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := resolveAccount(a.store, ref)
	if err != nil {
		return err
	}

	if f.set["login"] {
		acc.LoginID = f.login
	}
	if f.set["handle"] {
		acc.RiotHandle = f.handle
	}
	if f.set["server"] {
		acc.Server = f.server
	}
	if f.set["note"] {
		acc.Note = f.note
	}
	if f.set["password"] {
		acc.LoginSecret = f.password
	}

	if err := a.store.Update(acc); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	fmt.Printf("Updated %s (%s)\n", acc.RiotHandle, acc.ID)
	return nil
}

func parseRankArgs(args []string) (string, account.Rank, error) {
	fs := flag.NewFlagSet("account rank", flag.ContinueOnError)
	tier := fs.String("tier", "", "tier (IRON ... CHALLENGER, UNRANKED)")
	div := fs.String("div", "", "division (I, II, III, IV)")
	lp := fs.Int("lp", 0, "league points")
	winrate := fs.String("winrate", "", "winrate text")

	id, err := parseWithID(fs, args)
	if err != nil {
		return "", account.Rank{}, err
	}
	if id == "" || *tier == "" {
		return "", account.Rank{}, errors.New("usage: lcu-keeper account rank ID -tier T [-div D] [-lp N] [-winrate W]")
	}

	return id, account.Rank{
		Tier:     strings.ToUpper(strings.TrimSpace(*tier)),
		Division: strings.ToUpper(strings.TrimSpace(*div)),
		LP:       *lp,
		Winrate:  strings.TrimSpace(*winrate),
	}, nil
}

// runRank records a rank by hand.
func (c *accountCommand) runRank(args []string) error {
	ref, r, err := parseRankArgs(args)
	if err != nil {
		return err
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := resolveAccount(a.store, ref)
	if err != nil {
		return err
	}

	acc, err = a.store.SetRank(acc.ID, r)
	if err != nil {
		return fmt.Errorf("failed to set rank: %w", err)
	}

	fmt.Printf("Rank of %s set to %s %s %d LP\n", acc.RiotHandle, acc.RankTier, acc.RankDivision, acc.LeaguePoints)
	return nil
}

// runShow displays one account.
func (c *accountCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("account show", flag.ContinueOnError)
	reveal := fs.Bool("reveal", false, "also print the login password")
	format := fs.String("format", "table", "output format (table, json, simple)")

	ref, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if ref == "" {
		return errors.New("usage: lcu-keeper account show ID [-reveal] [-format F]")
	}

	f, err := display.ParseFormat(*format)
	if err != nil {
		return err
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := resolveAccount(a.store, ref)
	if err != nil {
		return err
	}

	if err := display.New(display.Config{Format: f}).FormatAccount(os.Stdout, acc); err != nil {
		return err
	}
	if *reveal {
		fmt.Printf("Password: %s\n", acc.LoginSecret)
	}
	return nil
}

// runDelete removes one account.
func (c *accountCommand) runDelete(args []string) error {
	fs := flag.NewFlagSet("account delete", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")

	ref, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if ref == "" {
		return errors.New("usage: lcu-keeper account delete ID [-force]")
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	acc, err := resolveAccount(a.store, ref)
	if err != nil {
		return err
	}

	if !*force && !confirm(fmt.Sprintf("Delete account %s (%s)?", acc.RiotHandle, acc.ID)) {
		fmt.Println("Cancelled")
		return nil
	}

	if err := a.store.Delete(acc.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	fmt.Printf("Deleted %s (%s)\n", acc.RiotHandle, acc.ID)
	return nil
}

// runExport writes a plaintext backup.
func (c *accountCommand) runExport(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lcu-keeper account export FILE")
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	if err := a.store.Export(file); err != nil {
		_ = file.Close() //nolint:errcheck // export error takes precedence
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}

	fmt.Printf("Exported %d account(s) to %s\n", a.store.Len(), args[0])
	fmt.Println("Note: the backup contains passwords in clear text.")
	return nil
}

// runImport replaces the collection with a backup.
func (c *accountCommand) runImport(args []string) error {
	fs := flag.NewFlagSet("account import", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")

	path, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New("usage: lcu-keeper account import FILE [-force]")
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if n := a.store.Len(); n > 0 && !*force &&
		!confirm(fmt.Sprintf("Replace %d stored account(s) with %s?", n, path)) {
		fmt.Println("Cancelled")
		return nil
	}

	file, err := os.Open(path) // nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	n, err := a.store.Import(file)
	if err != nil {
		if errors.Is(err, account.ErrInvalidImport) {
			return fmt.Errorf("%s is not an account backup: %w", path, err)
		}
		return err
	}

	fmt.Printf("Imported %d account(s)\n", n)
	return nil
}

// runRestore swaps the collection with the one replaced by the last
// import or restore.
func (c *accountCommand) runRestore(args []string) error {
	fs := flag.NewFlagSet("account restore", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.New("usage: lcu-keeper account restore [-force]")
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if !*force && !confirm(fmt.Sprintf("Replace %d stored account(s) with the previous collection?", a.store.Len())) {
		fmt.Println("Cancelled")
		return nil
	}

	n, err := a.store.Restore()
	if err != nil {
		if errors.Is(err, account.ErrNoSnapshot) {
			return errors.New("nothing to restore: no import has replaced the accounts yet")
		}
		return err
	}

	fmt.Printf("Restored %d account(s)\n", n)
	if info, err := a.store.Revision(); err == nil {
		fmt.Printf("Collection revision %d, saved %s\n", info.Revision, info.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

// runCheck looks up the rank of every account.
func (c *accountCommand) runCheck(args []string) error {
	fs := flag.NewFlagSet("account check", flag.ContinueOnError)
	delay := fs.Duration("delay", 0, "pause between lookups (default: rank.delay)")
	format := fs.String("format", "table", "summary format (table, json, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := display.ParseFormat(*format)
	if err != nil {
		return err
	}

	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	fetcher, err := rank.NewHTTPFetcher(a.cfg.Rank.URLTemplate, a.cfg.Rank.Timeout)
	if errors.Is(err, rank.ErrNoTemplate) {
		return fmt.Errorf("%w: set rank.url_template or LCU_KEEPER_RANK_URL", err)
	}
	if err != nil {
		return err
	}

	opts := rank.Options{
		Delay:    a.cfg.Rank.Delay,
		Progress: printProgress,
	}
	if *delay > 0 {
		opts.Delay = *delay
	}

	ctx, stop := signalContext()
	defer stop()

	sum, err := rank.BulkCheck(ctx, a.store, fetcher, opts, a.log.Named("rank"))
	if err != nil {
		return fmt.Errorf("failed to store ranks: %w", err)
	}

	return display.New(display.Config{Format: f}).FormatRankSummary(os.Stdout, sum)
}

func printProgress(p rank.Progress) {
	var result string
	switch {
	case p.Err != nil:
		result = "error: " + p.Err.Error()
	case p.Result == nil:
		result = "no data"
	case p.Result.Tier == "":
		result = account.DefaultRankTier
	default:
		result = strings.TrimSpace(fmt.Sprintf("%s %s %d LP", p.Result.Tier, p.Result.Division, p.Result.LP))
	}
	fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", p.Index, p.Total, p.Account.RiotHandle, result)
}

// parseWithID parses flags that may come before or after one positional
// argument and returns that argument.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := fs.Parse(args[1:]); err != nil {
			return "", err
		}
		if fs.NArg() > 0 {
			return "", fmt.Errorf("unexpected argument: %s", fs.Arg(0))
		}
		return args[0], nil
	}

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() > 1 {
		return "", fmt.Errorf("unexpected argument: %s", fs.Arg(1))
	}
	return fs.Arg(0), nil
}

// accountLister is the part of *account.Store id resolution needs.
type accountLister interface {
	Get(id string) (account.Account, error)
	List() []account.Account
}

// resolveAccount finds an account by full id or by a unique id prefix,
// such as the short id shown by account list.
func resolveAccount(store accountLister, ref string) (account.Account, error) {
	ref = strings.TrimSpace(ref)
	if acc, err := store.Get(ref); err == nil {
		return acc, nil
	}

	var match []account.Account
	if ref != "" {
		for _, acc := range store.List() {
			if strings.HasPrefix(acc.ID, ref) {
				match = append(match, acc)
			}
		}
	}

	switch len(match) {
	case 0:
		return account.Account{}, fmt.Errorf("%w: %s", account.ErrNotFound, ref)
	case 1:
		return match[0], nil
	default:
		return account.Account{}, fmt.Errorf("ambiguous account id %q matches %d accounts", ref, len(match))
	}
}

// showHelp displays help for account command.
func (c *accountCommand) showHelp() error {
	help := `Account - Account management

Usage:
  lcu-keeper account <subcommand> [flags]

Subcommands:
  list      List accounts sorted by rank
  add       Add an account
  edit      Change fields of an account
  rank      Set the rank of an account by hand
  show      Show one account
  delete    Delete an account
  export    Write a plaintext JSON backup
  import    Replace all accounts with a backup
  restore   Undo the last import (or restore)
  check     Look up the rank of every account

List Flags:
  -server   Only accounts on this server
  -query    Search handle, tier, note and login
  -asc      Lowest rank first
  -format   Output format (table, json, simple)
  -notes    Show notes
  -compact  Compact output

Add/Edit Flags:
  -login, -handle, -server, -note, -password

Examples:
  lcu-keeper account add -login mylogin -handle "Name#EUW" -server EUW1
  lcu-keeper account list -server EUW1 -query diamond
  lcu-keeper account edit 4f6c2a1e -note "main"
  lcu-keeper account rank 4f6c2a1e -tier GOLD -div II -lp 45
  lcu-keeper account show 4f6c2a1e -reveal
  lcu-keeper account export backup.json
  lcu-keeper account import accounts_db.json
  lcu-keeper account restore
  lcu-keeper account check -delay 2s
`
	fmt.Print(help)
	return nil
}
