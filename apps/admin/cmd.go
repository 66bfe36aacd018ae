package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/study"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db      *sql.DB
	history study.HistoryRepository
	conf    *core.Config
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (up, down, status, ...)")
	fmt.Println("  prunesessions [-max-age DURATION] - delete session summaries older than max age")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "prunesessions":
		return cli.pruneSessions(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
