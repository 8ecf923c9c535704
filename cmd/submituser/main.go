// Command submituser manages the contest's registered users: add,
// update and delete records in the shared credentials document, or mint
// a fresh UUID-form user. Each invocation performs one store call and
// exits, so it can run next to live web workers; the document lock
// keeps the update safe.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/ajkula/GoSubmit/adapter/outbound/crypto"
	"github.com/ajkula/GoSubmit/adapter/outbound/lockfs"
	"github.com/ajkula/GoSubmit/adapter/outbound/logging"
	"github.com/ajkula/GoSubmit/adapter/outbound/machineid"
	"github.com/ajkula/GoSubmit/adapter/outbound/storage"
	"github.com/ajkula/GoSubmit/config"
	"github.com/ajkula/GoSubmit/domain/model"
	"github.com/ajkula/GoSubmit/domain/port/inbound"
	"github.com/ajkula/GoSubmit/domain/port/outbound"
	"github.com/ajkula/GoSubmit/domain/service"
)

func main() {
	var (
		configPath  string
		addUser     string
		updateUser  string
		deleteUser  string
		genUUID     bool
		password    string
		interactive bool
		forceChange bool
		graceSecs   int
		noLogin     bool
		admin       bool
		list        bool
	)

	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&addUser, "a", "", "add a new user")
	flag.StringVar(&updateUser, "u", "", "update a user, or add if not a user")
	flag.StringVar(&deleteUser, "d", "", "delete an existing user")
	flag.BoolVar(&genUUID, "U", false, "generate a new UUID username and password")
	flag.StringVar(&password, "p", "", "specify the password (def: generate a random password)")
	flag.BoolVar(&interactive, "i", false, "prompt for the password without echo")
	flag.BoolVar(&forceChange, "c", false, "force a password change at next login")
	flag.IntVar(&graceSecs, "g", 0, "grace time in seconds to change the password (def: from config)")
	flag.BoolVar(&noLogin, "n", false, "disable login")
	flag.BoolVar(&admin, "A", false, "user is an admin")
	flag.BoolVar(&list, "l", false, "list users")
	flag.Parse()

	cfg := loadConfig(configPath)
	logger := logging.NewSlogAdapter(cfg)

	err := run(cfg, logger, options{
		addUser:     addUser,
		updateUser:  updateUser,
		deleteUser:  deleteUser,
		genUUID:     genUUID,
		password:    password,
		interactive: interactive,
		forceChange: forceChange,
		graceSecs:   graceSecs,
		noLogin:     noLogin,
		admin:       admin,
		list:        list,
	})

	logger.Shutdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	addUser     string
	updateUser  string
	deleteUser  string
	genUUID     bool
	password    string
	interactive bool
	forceChange bool
	graceSecs   int
	noLogin     bool
	admin       bool
	list        bool
}

func loadConfig(path string) *config.Config {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildCredentialService(cfg *config.Config, logger outbound.Logger) (inbound.CredentialService, error) {
	broker := lockfs.NewFlockBroker(machineid.NewHardwareMachineID(), logger)

	users, err := storage.NewUserRepository(
		cfg.PasswordFilePath(), cfg.PasswordLockPath(), broker, logger, cfg.LockTimeout())
	if err != nil {
		return nil, err
	}

	slots, err := storage.NewSlotRepository(
		cfg.SlotsDirPath(), broker, logger, cfg.LockTimeout(), cfg.Slots.Count, cfg.Slots.MaxSubmissionBytes)
	if err != nil {
		return nil, err
	}

	return service.NewCredentialService(
		users, slots, crypto.NewArgon2Hasher(), logger,
		cfg.GracePeriod(), cfg.Accounts.GeneratedPasswordLength), nil
}

func run(cfg *config.Config, logger outbound.Logger, opts options) error {
	creds, err := buildCredentialService(cfg, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	password := opts.password
	if opts.interactive {
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}

	userOpts := model.UserOptions{
		Admin:               opts.admin,
		LoginDisabled:       opts.noLogin,
		ForcePasswordChange: opts.forceChange,
		GracePeriod:         time.Duration(opts.graceSecs) * time.Second,
	}

	switch {
	case opts.list:
		users, err := creds.ListUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%s admin=%v disabled=%v forceChange=%v\n",
				u.Username, u.Admin, u.LoginDisabled, u.ForcePasswordChange)
		}
		return nil

	case opts.genUUID:
		username, generated, err := creds.GenerateUUIDUser(ctx, password, userOpts)
		if err != nil {
			return err
		}
		reportNewUser(username, generated)
		return nil

	case opts.addUser != "":
		generated, err := creds.AddUser(ctx, opts.addUser, password, userOpts)
		if err != nil {
			return err
		}
		reportNewUser(opts.addUser, generated)
		return nil

	case opts.updateUser != "":
		return applyUpdate(ctx, creds, password, userOpts, opts)

	case opts.deleteUser != "":
		if err := creds.DeleteUser(ctx, opts.deleteUser); err != nil {
			return err
		}
		fmt.Printf("Notice: deleted user: %s\n", opts.deleteUser)
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("one of -a, -u, -d, -U or -l is required")
	}
}

// applyUpdate updates an existing user, falling back to creating the
// user when the username is unknown.
func applyUpdate(ctx context.Context, creds inbound.CredentialService, password string, userOpts model.UserOptions, opts options) error {
	upd := model.UserUpdate{
		Admin:               &opts.admin,
		LoginDisabled:       &opts.noLogin,
		ForcePasswordChange: &opts.forceChange,
	}
	if password != "" {
		upd.Password = &password
	}
	if opts.graceSecs > 0 {
		grace := time.Duration(opts.graceSecs) * time.Second
		upd.GracePeriod = &grace
	}

	err := creds.UpdateUser(ctx, opts.updateUser, upd)
	if err == nil {
		fmt.Printf("Notice: updated user: %s\n", opts.updateUser)
		return nil
	}
	if !errors.Is(err, model.ErrUnknownUser) {
		return err
	}

	generated, addErr := creds.AddUser(ctx, opts.updateUser, password, userOpts)
	if addErr != nil {
		return addErr
	}
	reportNewUser(opts.updateUser, generated)
	return nil
}

func reportNewUser(username, generated string) {
	if generated != "" {
		// the plaintext is shown exactly once and never stored
		fmt.Printf("Notice: added user: %s password: %s\n", username, generated)
		return
	}
	fmt.Printf("Notice: added user: %s\n", username)
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Enter password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
