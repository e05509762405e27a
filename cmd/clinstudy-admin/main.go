// Command clinstudy-admin provisions administrator accounts directly against
// the database, for first installs and lost-access recovery.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abduss/clinstudy/internal/auth"
	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/logger"
	"github.com/abduss/clinstudy/internal/storage"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const commandTimeout = 30 * time.Second

var errPasswordMismatch = errors.New("passwords do not match")

type adminCreator interface {
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 || os.Args[1] != "create-admin" {
		fmt.Fprintln(os.Stderr, "usage: clinstudy-admin create-admin -email <address>")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "administrator email")
	_ = fs.Parse(os.Args[2:])

	if err := run(*email); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(email string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logger.New(cfg.Log.Level); err != nil {
		return err
	}

	password, err := promptPassword(os.Stdin, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	pool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	service := auth.NewService(
		auth.NewRepository(pool),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewTokenIssuer(cfg.Auth),
		nil,
	)
	return createAdmin(ctx, service, email, password, os.Stdout)
}

func createAdmin(ctx context.Context, creator adminCreator, email, password string, out io.Writer) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("-email is required")
	}

	created, err := creator.EnsureAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if created {
		fmt.Fprintf(out, "admin %s created\n", email)
	} else {
		fmt.Fprintf(out, "%s is already registered, nothing to do\n", email)
	}
	return nil
}

// promptPassword asks twice. A piped stdin must carry the password on two lines.
func promptPassword(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return readPipedPassword(in)
	}

	fmt.Fprint(prompt, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(prompt, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errPasswordMismatch
	}
	return string(first), nil
}

func readPipedPassword(r io.Reader) (string, error) {
	reader := bufio.NewReader(r)
	first, err := readLine(reader)
	if err != nil {
		return "", err
	}
	second, err := readLine(reader)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errPasswordMismatch
	}
	return first, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", errors.New("read password: expected the password twice on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
