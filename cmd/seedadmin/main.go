// Command seedadmin creates the admin account, or promotes an existing one.
//
//	seedadmin -email admin@example.com [-d postgres://...]
//
// The password comes from -password, $ADMIN_PASSWORD, or an interactive
// prompt without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"syscall"

	"github.com/dmitrijs2005/housing/internal/flagx"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server"
	"github.com/dmitrijs2005/housing/internal/server/config"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"golang.org/x/term"
)

var (
	openStore    = server.OpenStore
	readPassword = func() ([]byte, error) { return term.ReadPassword(int(syscall.Stdin)) }
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(context.Background(), cfg, os.Args[1:], os.Stderr); err != nil {
		log.Fatalf("seedadmin: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seedadmin", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", cfg.AdminEmail, "admin e-mail")
	password := fs.String("password", cfg.AdminPassword, "admin password (prompted when empty)")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-email", "-password"})); err != nil {
		return err
	}

	if *email == "" {
		return errors.New("admin e-mail is required (-email or ADMIN_EMAIL)")
	}
	if *password == "" {
		p, err := prompt(out)
		if err != nil {
			return err
		}
		*password = p
	}

	logger := logging.NewJSONLogger(out, logging.ParseLevel(cfg.LogLevel))
	rm, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rm.Close()

	quiet := notify.NewBestEffort(notify.NewLog(logger), logger)
	svc, err := server.NewServices(cfg, rm, quiet, quiet, logger)
	if err != nil {
		return err
	}

	user, err := svc.Users.SeedAdmin(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "admin ready: %s (%s)\n", user.Email, user.ID)
	return nil
}

func prompt(out io.Writer) (string, error) {
	fmt.Fprint(out, "Admin password: ")
	first, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("password is empty")
	}
	return string(first), nil
}
