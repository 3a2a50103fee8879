package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/seed"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	migrate   func(ctx context.Context) ([]string, error)
	reconcile func(ctx context.Context) (*dto.ReconcileResult, error)
	users     seed.AdminCreator
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate                                    - apply pending database migrations")
	fmt.Fprintln(cli.out, "  createadmin -email EMAIL -first NAME -last NAME - create an admin account; the password is prompted")
	fmt.Fprintln(cli.out, "  reconcile                                  - recompute cached point and experience totals")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	createAdminCmd.SetOutput(cli.out)
	email := createAdminCmd.String("email", "", "The admin's email address")
	first := createAdminCmd.String("first", "", "First name")
	last := createAdminCmd.String("last", "", "Last name")

	switch args[1] {
	case "migrate":
		applied, err := cli.migrate(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cli.out, "No pending migrations.")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintf(cli.out, "Applied %s\n", v)
		}
		return nil

	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *email == "" || *first == "" || *last == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createAdminCmd.Usage()
			return errHelp
		}
		user, err := seed.CreateAdmin(ctx, cli.users, *email, *first, *last, string(pwd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Admin %s created with id %d\n", user.Email, user.ID)
		return nil

	case "reconcile":
		result, err := cli.reconcile(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Corrected %d point balances and %d experience totals\n", result.PointsCorrected, result.ExperienceCorrected)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
