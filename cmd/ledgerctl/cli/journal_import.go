package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// ImportMode enumerates supported execution strategies.
type ImportMode string

const (
	// ImportModeDry validates the file without creating drafts.
	ImportModeDry ImportMode = "dry"
	// ImportModeApply creates drafts after confirmation.
	ImportModeApply ImportMode = "apply"
)

// ImportSourceModule tags drafts created by the importer; together with the
// derived source id it makes re-imports of the same file idempotent.
const ImportSourceModule = "csv_import"

var importNamespace = uuid.MustParse("6f1c3c52-0d3e-4d8e-9a55-7f0b7f9b0a11")

// AccountLister lists the chart of accounts of an organisation.
type AccountLister interface {
	List(ctx context.Context, orgID int64) ([]accounts.Account, error)
}

// DraftCreator creates journal drafts.
type DraftCreator interface {
	CreateDraft(ctx context.Context, in journals.DraftInput) (journals.JournalEntry, error)
}

// JournalImporter turns CSV journal lines into drafts.
type JournalImporter struct {
	accounts AccountLister
	drafts   DraftCreator
}

// NewJournalImporter wires the importer.
func NewJournalImporter(accts AccountLister, drafts DraftCreator) *JournalImporter {
	return &JournalImporter{accounts: accts, drafts: drafts}
}

// ImportOptions configures the import command execution.
type ImportOptions struct {
	OrgID        int64
	ActorID      int64
	Mode         ImportMode
	Source       string
	SourceReader io.Reader
	JSONOutput   bool
	Stdout       io.Writer
	Stderr       io.Writer
	Stdin        io.Reader
	Confirm      func(io.Reader, io.Writer) (bool, error)
}

// ImportSummary captures the structured reporting outcome.
type ImportSummary struct {
	Mode     ImportMode      `json:"mode"`
	OrgID    int64           `json:"org_id"`
	Journals []ImportJournal `json:"journals"`
	Problems []ImportProblem `json:"problems"`
	Created  []ImportCreated `json:"created,omitempty"`
}

// ImportJournal summarises one journal found in the source.
type ImportJournal struct {
	Ref    string          `json:"ref"`
	Date   string          `json:"date"`
	Lines  int             `json:"lines"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// ImportProblem describes a journal that cannot be imported.
type ImportProblem struct {
	Ref     string `json:"ref"`
	Problem string `json:"problem"`
}

// ImportCreated links a source journal to the created draft.
type ImportCreated struct {
	Ref    string `json:"ref"`
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

type importGroup struct {
	ref   string
	date  time.Time
	memo  string
	lines []journals.LineInput
	codes []string
}

// ImportCommand executes the journal import workflow. Exit code 10 signals
// a dry run that found problems.
func (c *JournalImporter) ImportCommand(ctx context.Context, opts ImportOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Mode == "" {
		opts.Mode = ImportModeDry
	}
	mode := ImportMode(strings.ToLower(string(opts.Mode)))
	switch mode {
	case ImportModeDry, ImportModeApply:
	default:
		fmt.Fprintf(opts.Stderr, "journal import: invalid mode %q (expected dry or apply)\n", opts.Mode)
		return 1
	}
	if opts.OrgID <= 0 {
		fmt.Fprintln(opts.Stderr, "journal import: --org is required")
		return 1
	}
	if mode == ImportModeApply && opts.ActorID <= 0 {
		fmt.Fprintln(opts.Stderr, "journal import: --actor is required to apply")
		return 1
	}
	data, err := readSource(opts)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "journal import: %v\n", err)
		return 1
	}
	groups, err := parseJournalCSV(data)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "journal import: %v\n", err)
		return 1
	}
	chart, err := c.accounts.List(ctx, opts.OrgID)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "journal import: list accounts: %v\n", err)
		return 1
	}
	byCode := make(map[string]accounts.Account, len(chart))
	for _, a := range chart {
		byCode[a.Code] = a
	}

	summary := ImportSummary{Mode: mode, OrgID: opts.OrgID, Journals: []ImportJournal{}, Problems: []ImportProblem{}}
	for i := range groups {
		g := &groups[i]
		debit, credit := decimal.Zero, decimal.Zero
		for j := range g.lines {
			debit = debit.Add(g.lines[j].Debit)
			credit = credit.Add(g.lines[j].Credit)
			a, ok := byCode[g.codes[j]]
			switch {
			case !ok:
				summary.Problems = append(summary.Problems, ImportProblem{Ref: g.ref, Problem: fmt.Sprintf("unknown account %s", g.codes[j])})
			case !a.Postable():
				summary.Problems = append(summary.Problems, ImportProblem{Ref: g.ref, Problem: fmt.Sprintf("account %s does not accept postings", g.codes[j])})
			default:
				g.lines[j].AccountID = a.ID
			}
		}
		if !debit.Equal(credit) {
			summary.Problems = append(summary.Problems, ImportProblem{Ref: g.ref, Problem: fmt.Sprintf("debits %s do not equal credits %s", debit.StringFixed(shared.AmountScale), credit.StringFixed(shared.AmountScale))})
		}
		summary.Journals = append(summary.Journals, ImportJournal{
			Ref:    g.ref,
			Date:   g.date.Format(time.DateOnly),
			Lines:  len(g.lines),
			Debit:  debit,
			Credit: credit,
		})
	}

	if mode == ImportModeDry || len(summary.Problems) > 0 {
		if err := writeImportOutput(opts, summary); err != nil {
			fmt.Fprintf(opts.Stderr, "journal import: %v\n", err)
			return 1
		}
		if len(summary.Problems) > 0 {
			if mode == ImportModeApply {
				return 1
			}
			return 10
		}
		return 0
	}

	confirm := opts.Confirm
	if confirm == nil {
		confirm = defaultImportConfirm
	}
	ok, err := confirm(opts.Stdin, opts.Stdout)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "journal import: confirmation failed: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(opts.Stderr, "journal import: cancelled by user")
		return 1
	}
	for _, g := range groups {
		sourceID := uuid.NewSHA1(importNamespace, []byte(fmt.Sprintf("%d/%s", opts.OrgID, g.ref)))
		entry, err := c.drafts.CreateDraft(ctx, journals.DraftInput{
			OrgID:        opts.OrgID,
			Date:         g.date,
			Memo:         g.memo,
			SourceModule: ImportSourceModule,
			SourceID:     &sourceID,
			ActorID:      opts.ActorID,
			Lines:        g.lines,
		})
		if err != nil {
			fmt.Fprintf(opts.Stderr, "journal import: %s: %v\n", g.ref, err)
			_ = writeImportOutput(opts, summary)
			return 1
		}
		summary.Created = append(summary.Created, ImportCreated{Ref: g.ref, ID: entry.ID, Number: entry.Number})
	}
	if err := writeImportOutput(opts, summary); err != nil {
		fmt.Fprintf(opts.Stderr, "journal import: %v\n", err)
		return 1
	}
	return 0
}

func readSource(opts ImportOptions) ([]byte, error) {
	switch {
	case opts.SourceReader != nil:
		return io.ReadAll(opts.SourceReader)
	case opts.Source == "-":
		return io.ReadAll(opts.Stdin)
	case strings.TrimSpace(opts.Source) == "":
		return nil, errors.New("--file is required")
	default:
		return os.ReadFile(opts.Source)
	}
}

var importColumns = []string{"ref", "date", "account", "debit", "credit"}

// parseJournalCSV groups rows by ref in first-seen order. Required columns
// are ref, date, account, debit and credit; description and memo are optional.
func parseJournalCSV(data []byte) ([]importGroup, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("source is empty")
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := nextNonEmptyRecord(reader)
	if err != nil {
		return nil, err
	}
	idx := map[string]int{"description": -1, "memo": -1}
	for _, col := range importColumns {
		idx[col] = -1
	}
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "account_code" {
			name = "account"
		}
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	for _, col := range importColumns {
		if idx[col] < 0 {
			return nil, fmt.Errorf("missing required columns in source (need %s)", strings.Join(importColumns, ", "))
		}
	}
	field := func(record []string, name string) string {
		i := idx[name]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var groups []importGroup
	byRef := make(map[string]int)
	line := 1
	for {
		record, err := nextNonEmptyRecord(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		ref := field(record, "ref")
		if ref == "" {
			return nil, fmt.Errorf("row %d: ref is required", line)
		}
		date, err := time.Parse(time.DateOnly, field(record, "date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q (expected YYYY-MM-DD)", line, field(record, "date"))
		}
		debit, err := parseAmount(field(record, "debit"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid debit: %v", line, err)
		}
		credit, err := parseAmount(field(record, "credit"))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid credit: %v", line, err)
		}
		pos, ok := byRef[ref]
		if !ok {
			pos = len(groups)
			byRef[ref] = pos
			groups = append(groups, importGroup{ref: ref, date: date, memo: field(record, "memo")})
		}
		g := &groups[pos]
		if !g.date.Equal(date) {
			return nil, fmt.Errorf("row %d: journal %s has more than one date", line, ref)
		}
		g.lines = append(g.lines, journals.LineInput{
			Description: field(record, "description"),
			Debit:       debit,
			Credit:      credit,
		})
		g.codes = append(g.codes, field(record, "account"))
	}
	if len(groups) == 0 {
		return nil, errors.New("source has no journal lines")
	}
	return groups, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
}

func nextNonEmptyRecord(r *csv.Reader) ([]string, error) {
	for {
		record, err := r.Read()
		if err != nil {
			return nil, err
		}
		skip := true
		for _, field := range record {
			trimmed := strings.TrimSpace(field)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			skip = false
		}
		if !skip {
			return record, nil
		}
	}
}

func writeImportOutput(opts ImportOptions, summary ImportSummary) error {
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(summary)
	}
	renderImportHuman(opts.Stdout, summary)
	return nil
}

func renderImportHuman(out io.Writer, summary ImportSummary) {
	fmt.Fprintf(out, "Journal import (%s) for org %d: %d journal(s)\n", summary.Mode, summary.OrgID, len(summary.Journals))
	for _, j := range summary.Journals {
		fmt.Fprintf(out, " - %s %s %d line(s) debit %s credit %s\n", j.Ref, j.Date, j.Lines, j.Debit.StringFixed(2), j.Credit.StringFixed(2))
	}
	if len(summary.Problems) == 0 {
		fmt.Fprintln(out, "No problems detected.")
	} else {
		problems := append([]ImportProblem(nil), summary.Problems...)
		sort.SliceStable(problems, func(i, j int) bool { return problems[i].Ref < problems[j].Ref })
		fmt.Fprintf(out, "%d problem(s):\n", len(problems))
		for _, p := range problems {
			fmt.Fprintf(out, " - %s: %s\n", p.Ref, p.Problem)
		}
	}
	if len(summary.Created) > 0 {
		fmt.Fprintln(out, "Created drafts:")
		for _, c := range summary.Created {
			fmt.Fprintf(out, " - %s -> %s (id %d)\n", c.Ref, c.Number, c.ID)
		}
	}
}

func defaultImportConfirm(r io.Reader, w io.Writer) (bool, error) {
	fmt.Fprint(w, "Create journal drafts? Type YES to confirm: ")
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "YES"), nil
}
