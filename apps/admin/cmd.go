package main

import (
	"bufio"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/Mufti-IBAK/mubeen-website-sub001/core"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/form"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/profile"
	"github.com/Mufti-IBAK/mubeen-website-sub001/core/program"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp        = errors.New("help provided")
	errAborted     = errors.New("aborted")
	errNotTerminal = errors.New("stdin is not a terminal; pass -yes to confirm")
)

type commandLine struct {
	db         *sql.DB
	programSvc program.Service
	formSvc    form.Service
	profileSvc profile.Service
	validate   *validator.Validate
	logger     core.Logger
	in         io.Reader
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  form import -program ID -type T -file F [-dry-run] [-yes] - replace a form with a JSON or YAML document")
	fmt.Fprintln(cli.out, "  form export -program ID -type T [-format json|yaml]     - print a stored form")
	fmt.Fprintln(cli.out, "  grantrole -id ID -role ROLE                             - add a role to a profile")
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
	case "form":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.runForm(args[2], args[3:])
	case "grantrole":
		grantRoleCmd := flag.NewFlagSet("grantrole", flag.ContinueOnError)
		grantRoleCmd.SetOutput(cli.out)
		id := grantRoleCmd.String("id", "", "The profile id (the auth provider's subject).")
		role := grantRoleCmd.String("role", "", "The role to add, e.g. admin:editor.")
		if err := grantRoleCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *id == "" || *role == "" {
			grantRoleCmd.Usage()
			return errHelp
		}
		return cli.grantRole(*id, *role)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) runForm(sub string, args []string) error {
	fset := flag.NewFlagSet("form "+sub, flag.ContinueOnError)
	fset.SetOutput(cli.out)
	prg := fset.String("program", "", "The owning program's id or slug.")
	formType := fset.String("type", form.DefaultFormType, "The form type.")

	switch sub {
	case "import":
		file := fset.String("file", "", "The JSON or YAML schema document.")
		dryRun := fset.Bool("dry-run", false, "Only print the changes.")
		yes := fset.Bool("yes", false, "Do not ask for confirmation.")
		if err := fset.Parse(args); err != nil {
			return errHelp
		}
		if *prg == "" || *file == "" {
			fset.Usage()
			return errHelp
		}
		return cli.importForm(*prg, *formType, *file, *dryRun, *yes)
	case "export":
		format := fset.String("format", "json", "Output format: json or yaml.")
		if err := fset.Parse(args); err != nil {
			return errHelp
		}
		if *prg == "" || (*format != "json" && *format != "yaml") {
			fset.Usage()
			return errHelp
		}
		return cli.exportForm(*prg, *formType, *format)
	default:
		cli.printUsage()
		return errHelp
	}
}

// confirm asks a yes/no question on the terminal.
func (cli *commandLine) confirm(question string) error {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return errNotTerminal
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}
