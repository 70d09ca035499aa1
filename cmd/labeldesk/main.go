// ABOUTME: Entry point for the labeldesk admin server
// ABOUTME: Serves the admin page and manages users and tokens from the command line

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/labeldesk/internal/auth"
	"github.com/2389/labeldesk/internal/config"
	"github.com/2389/labeldesk/internal/server"
	"github.com/2389/labeldesk/internal/store"
)

// version is set at build time.
var version = "dev"

const banner = `
  _       _          _     _           _
 | | __ _| |__   ___| | __| | ___  ___| | __
 | |/ _' | '_ \ / _ \ |/ _' |/ _ \/ __| |/ /
 | | (_| | |_) |  __/ | (_| |  __/\__ \   <
 |_|\__,_|_.__/ \___|_|\__,_|\___||___/_|\_\
`

// getConfigPath returns the path to the config file.
// Priority: LABELDESK_CONFIG env var > XDG_CONFIG_HOME/labeldesk/config.yaml > ~/.config/labeldesk/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("LABELDESK_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "labeldesk", "config.yaml")
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: labeldesk <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                                   Start the server")
	fmt.Fprintln(w, "  adduser --username U --password P       Create a user (--role, --display-name)")
	fmt.Fprintln(w, "  users                                   List users and their roles")
	fmt.Fprintln(w, "  setrole --username U --role R           Change a user's role (empty role clears it)")
	fmt.Fprintln(w, "  token --username U                      Print a bearer token (--ttl)")
	fmt.Fprintln(w, "  health                                  Check server health")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "adduser":
		err = runAddUser(ctx, os.Args[2:], os.Stdout)
	case "users":
		err = runUsers(ctx, os.Args[2:], os.Stdout)
	case "setrole":
		err = runSetRole(ctx, os.Args[2:], os.Stdout)
	case "token":
		err = runToken(ctx, os.Args[2:], os.Stdout)
	case "health":
		err = runHealth(ctx)
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting labeldesk",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// openStore loads config and opens the same database serve would.
func openStore() (*config.Config, store.Store, error) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := server.OpenStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, s, nil
}

func runAddUser(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "Username to sign in with")
	password := fs.String("password", "", "Password (at least 8 characters)")
	role := fs.String("role", auth.AdminRoleTag, "Role tag; only ADMIN can open the admin page")
	displayName := fs.String("display-name", "", "Name shown in the admin page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	*username = strings.TrimSpace(*username)
	if *username == "" {
		return errors.New("--username flag is required")
	}
	if *password == "" {
		return errors.New("--password flag is required")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	_, s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     *username,
		DisplayName:  strings.TrimSpace(*displayName),
		PasswordHash: hash,
		Role:         *role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return fmt.Errorf("username %q is already taken", *username)
		}
		return fmt.Errorf("creating user: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(out, "  ✓ Created user %s", user.Username)
	fmt.Fprintf(out, " (role %s, id %s)\n", roleLabel(user.Role), user.ID)
	if auth.RoleOf(user) != auth.RoleAdmin {
		color.New(color.FgYellow).Fprintf(out, "  ! %s cannot open the admin page without the %s role\n", user.Username, auth.AdminRoleTag)
	}
	return nil
}

func runUsers(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	fs.SetOutput(out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users. Create one with: labeldesk adduser --username U --password P")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  USERNAME\tDISPLAY NAME\tROLE\tADMIN\tCREATED")
	fmt.Fprintln(w, "  --------\t------------\t----\t-----\t-------")
	for _, u := range users {
		admin := "no"
		if auth.RoleOf(u) == auth.RoleAdmin {
			admin = "yes"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", u.Username, u.DisplayName, roleLabel(u.Role), admin, u.CreatedAt.Format("Jan 02 15:04"))
	}
	return w.Flush()
}

func runSetRole(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("setrole", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "User whose role changes")
	role := fs.String("role", "", "New role tag; only ADMIN can open the admin page")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if *username == "" {
		return errors.New("--username flag is required")
	}

	roleSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "role" {
			roleSet = true
		}
	})
	if !roleSet {
		return errors.New("--role flag is required")
	}

	_, s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.GetUserByUsername(ctx, *username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("no user named %q", *username)
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	if err := s.SetUserRole(ctx, user.ID, *role); err != nil {
		return fmt.Errorf("setting role: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Fprintf(out, "  ✓ %s", user.Username)
	fmt.Fprintf(out, " role %s -> %s\n", roleLabel(user.Role), roleLabel(*role))
	return nil
}

func runToken(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	username := fs.String("username", "", "User to issue the token for")
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return errors.New("--username flag is required")
	}
	if *ttl <= 0 {
		return errors.New("--ttl must be positive")
	}

	cfg, s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.GetUserByUsername(ctx, *username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return fmt.Errorf("no user named %q", *username)
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return err
	}
	token, err := verifier.Generate(user.ID, *ttl)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Fprintln(out, token)
	return nil
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/healthz", healthHost(cfg.Server.HTTPAddr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

// healthHost turns a listen address like ":8080" into something dialable.
func healthHost(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func roleLabel(role string) string {
	if role == "" {
		return "none"
	}
	return role
}
