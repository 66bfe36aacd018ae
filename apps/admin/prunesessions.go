package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

// pruneSessions deletes persisted session summaries that fell out of the
// retention window. Meant to run from a cron job.
func (cli *commandLine) pruneSessions(args []string) error {
	cmd := flag.NewFlagSet("prunesessions", flag.ExitOnError)
	maxAge := cmd.Duration("max-age", cli.conf.Session.HistoryMaxAge, "Retention window; summaries older than this are deleted.")
	if err := cmd.Parse(args); err != nil {
		return err
	}
	if *maxAge <= 0 {
		cmd.Usage()
		return errHelp
	}

	cutoff := time.Now().Add(-*maxAge)
	deleted, err := cli.history.DeleteSummariesBefore(context.Background(), cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d session summaries older than %s\n", deleted, *maxAge)
	return nil
}
