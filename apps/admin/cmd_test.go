package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/study"
)

type fakeHistoryRepo struct {
	summaries  []study.Summary
	lastCutoff time.Time
}

func (r *fakeHistoryRepo) SaveSummary(_ context.Context, sum study.Summary) error {
	r.summaries = append(r.summaries, sum)
	return nil
}

func (r *fakeHistoryRepo) GetSummary(_ context.Context, _ string) (study.Summary, error) {
	return study.Summary{}, study.ErrSessionNotFound
}

func (r *fakeHistoryRepo) QuerySummaries(_ context.Context, _ string, _ catalog.Kind) ([]study.Summary, error) {
	return r.summaries, nil
}

func (r *fakeHistoryRepo) DeleteSummariesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.lastCutoff = cutoff
	var kept []study.Summary
	var deleted int64
	for _, sum := range r.summaries {
		if sum.SessionDate.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, sum)
	}
	r.summaries = kept
	return deleted, nil
}

func setup() (*commandLine, *fakeHistoryRepo) {
	history := &fakeHistoryRepo{}
	cli := &commandLine{
		history: history,
		conf: &core.Config{
			Session: core.SessionConfig{HistoryMaxAge: 30 * 24 * time.Hour},
		},
	}
	return cli, history
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup()

	migrateRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "bookmarks", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_pruneSessions(t *testing.T) {
	cli, history := setup()

	now := time.Now()
	history.summaries = []study.Summary{
		{SessionID: "old", SessionDate: now.Add(-40 * 24 * time.Hour)},
		{SessionID: "recent", SessionDate: now.Add(-30 * time.Minute)},
	}

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "prune with default retention", args: []string{"prunesessions"}},
		{name: "prune with custom retention", args: []string{"prunesessions", "-max-age", "1h"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
		})
	}

	if len(history.summaries) != 1 || history.summaries[0].SessionID != "recent" {
		t.Errorf("summaries = %+v, want recent only", history.summaries)
	}
	if got := time.Until(history.lastCutoff); got < -2*time.Hour || got > 0 {
		t.Errorf("last cutoff %s not ~1h ago", history.lastCutoff)
	}
}
