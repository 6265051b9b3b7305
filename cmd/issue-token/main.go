package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if err := run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(stderr)

	subject := fs.String("sub", "", "User id the token authenticates as")
	name := fs.String("name", "", "Display name (optional)")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	secret := fs.String("secret", "", "Signing secret (defaults to JWT_SECRET)")
	issuer := fs.String("issuer", "", "Issuer claim (defaults to JWT_ISSUER)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		fmt.Fprintln(stdout, "Usage: issue-token -sub <user id> [-name <name>] [-ttl 24h]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: sub")
	}
	if *secret == "" {
		*secret = getenv("JWT_SECRET")
	}
	if *issuer == "" {
		*issuer = getenv("JWT_ISSUER")
	}
	if len(*secret) < 16 {
		return fmt.Errorf("signing secret must be at least 16 characters")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	token, err := auth.NewIssuer(*secret, *issuer).Issue(*subject, *name, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
