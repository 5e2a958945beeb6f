package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"finanzbuch/internal/cli"
	"finanzbuch/internal/config"
	"finanzbuch/internal/core"
	"finanzbuch/internal/services"
)

const usage = `usage: finanzbuch [-file path] <command> [flags]

commands:
  entries          list depot entries
  add-entry        create an entry           -name -variant
  remove-entry     delete an entry           -name
  add-section      add a savings plan section -entry -start -end -amount [-interval]
  remove-section   delete a section          -entry -start
  plan             show an entry's plan      -entry [-date]
  add-year         add a history year        -entry [-year]
  set-month        set a month cell          -entry -year -month -field -value
  import-csv       import a CSV column       -entry -file -column -year [-from-month] -field
  uniform          extend all histories to the same years
  ledger           show the depot ledger     [-all]
  add-comparison   add a prognosis rate      -rate
`

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	global := flag.NewFlagSet("finanzbuch", flag.ContinueOnError)
	global.SetOutput(os.Stderr)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	file := global.String("file", cfg.DataFile, "document path")
	level := global.String("log-level", "warn", "log level")
	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	logger := cli.SetupLogger(*level)

	if *file == "" {
		logger.Error("No document path: set -file or " + config.FileEnv)
		os.Exit(2)
	}

	store := cli.OpenStore(logger, *file)
	depot := services.NewDepotService(store, core.SystemClock{}, nil)

	if err := run(context.Background(), depot, os.Stdout, global.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "finanzbuch:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"entries":        cmdEntries,
	"add-entry":      cmdAddEntry,
	"remove-entry":   cmdRemoveEntry,
	"add-section":    cmdAddSection,
	"remove-section": cmdRemoveSection,
	"plan":           cmdPlan,
	"add-year":       cmdAddYear,
	"set-month":      cmdSetMonth,
	"import-csv":     cmdImportCSV,
	"uniform":        cmdUniform,
	"ledger":         cmdLedger,
	"add-comparison": cmdAddComparison,
}

type app struct {
	depot *services.DepotService
	out   io.Writer
}

// run dispatches args[0] to its command.
func run(ctx context.Context, depot *services.DepotService, out io.Writer, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return cmd(ctx, &app{depot: depot, out: out}, args[1:])
}
