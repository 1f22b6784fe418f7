// Command stateadmin inspects and repairs persisted storefront state. It
// replaces ad-hoc debugging against the raw key-value backend with audited
// operations that go through the same durable store the services use.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/marketgrove/storefront-state/config"
	"github.com/marketgrove/storefront-state/internal/bootstrap"
	"github.com/marketgrove/storefront-state/internal/data"
	"github.com/marketgrove/storefront-state/internal/domain/cart"
	"github.com/marketgrove/storefront-state/internal/domain/session"
	"github.com/marketgrove/storefront-state/internal/domain/wishlist"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const defaultCommandTimeout = 30 * time.Second

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"session-show": {
			name:        "session-show",
			description: "Display the persisted session record",
			run:         runSessionShow,
		},
		"session-clear": {
			name:        "session-clear",
			description: "Remove the persisted session and its resilience copies",
			run:         runSessionClear,
		},
		"cart-show": {
			name:        "cart-show",
			description: "Display the persisted cart for a user",
			run:         runCartShow,
		},
		"cart-clear": {
			name:        "cart-clear",
			description: "Remove the persisted cart for a user",
			run:         runCartClear,
		},
		"wishlist-show": {
			name:        "wishlist-show",
			description: "Display the persisted wishlist for a user",
			run:         runWishlistShow,
		},
		"store-keys": {
			name:        "store-keys",
			description: "List all keys in the state store",
			run:         runStoreKeys,
		},
		"store-get": {
			name:        "store-get",
			description: "Dump the raw value, backup, and last write time of a key",
			run:         runStoreGet,
		},
		"store-repair": {
			name:        "store-repair",
			description: "Restore a corrupt key from its backup copy",
			run:         runStoreRepair,
		},
	}
}

func printUsage() error {
	if err := writef(os.Stdout, "Usage: stateadmin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(os.Stdout, "Available commands:\n"); err != nil {
		return err
	}
	for _, c := range commands() {
		if err := writef(os.Stdout, "  %-16s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return nil
}

// withInfra connects the configured backend and hands it to f.
func withInfra(cmdCtx *commandContext, f func(context.Context, *bootstrap.Infra) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	infra, err := bootstrap.ConnectKeyValue(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			cmdCtx.Logger.Warn("close storage failed", "error", cerr)
		}
	}()
	return f(ctx, infra)
}

// withStore wraps the connected backend in a durable store for f.
func withStore(cmdCtx *commandContext, f func(context.Context, *data.DurableStore) error) error {
	return withInfra(cmdCtx, func(ctx context.Context, infra *bootstrap.Infra) error {
		store, err := data.NewDurableStore(data.DurableStoreOptions{
			KV:     infra.KV,
			Logger: cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		return f(ctx, store)
	})
}

func runSessionShow(cmdCtx *commandContext, _ []string) error {
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		var rec session.Record
		found, err := store.Load(ctx, "session", &rec)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if !found {
			return writeln(os.Stdout, "No persisted session found")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		now := time.Now()
		if err := writef(w, "Session ID\t%s\n", rec.SessionID); err != nil {
			return fmt.Errorf("write session id: %w", err)
		}
		if err := writef(w, "User ID\t%s\n", rec.UserID()); err != nil {
			return fmt.Errorf("write user id: %w", err)
		}
		if err := writef(w, "Token\t%s\n", redactToken(rec.Token)); err != nil {
			return fmt.Errorf("write token: %w", err)
		}
		if err := writef(w, "Expires At\t%s\n", rec.ExpiresAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("write expiry: %w", err)
		}
		if err := writef(w, "Valid\t%t\n", rec.Valid(now)); err != nil {
			return fmt.Errorf("write validity: %w", err)
		}
		if err := writef(w, "Time Remaining\t%s\n", rec.TimeRemaining(now).Round(time.Second)); err != nil {
			return fmt.Errorf("write remaining: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush session table: %w", err)
		}
		return printLastWrite(ctx, store, "session")
	})
}

func runSessionClear(cmdCtx *commandContext, args []string) error {
	yes, err := parseYesFlag("session-clear", args)
	if err != nil {
		return err
	}
	if !yes {
		return errors.New("session-clear is destructive; re-run with --yes to confirm")
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		var errs []error
		for _, key := range []string{"session", "session_token", "session_user"} {
			if clearErr := store.Clear(ctx, key); clearErr != nil {
				errs = append(errs, clearErr)
			}
		}
		if joined := errors.Join(errs...); joined != nil {
			return joined
		}
		cmdCtx.Logger.Info("session cleared")
		return writeln(os.Stdout, "Session cleared")
	})
}

func runCartShow(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserIDArg("cart-show", args)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		var state cart.State
		found, err := store.Load(ctx, "cart:"+userID, &state)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if !found {
			return writef(os.Stdout, "No persisted cart for user %s\n", userID)
		}
		if err := printCart(userID, state); err != nil {
			return err
		}
		return printLastWrite(ctx, store, "cart:"+userID)
	})
}

func printCart(userID string, state cart.State) error {
	if err := writef(os.Stdout, "\nCart for user %s\n", userID); err != nil {
		return fmt.Errorf("write cart header: %w", err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "Key\tProduct\tQty\tUnit Price\tLine Total"); err != nil {
		return fmt.Errorf("write cart columns: %w", err)
	}
	for _, line := range state.Items {
		if err := writef(w, "%s\t%s\t%d\t%.2f\t%.2f\n",
			line.Key, line.Product.Name, line.Quantity, line.Price,
			line.Price*float64(line.Quantity)); err != nil {
			return fmt.Errorf("write cart line %q: %w", line.Key, err)
		}
	}
	if err := writef(w, "Total\t\t%d\t\t%.2f\n", state.TotalItems, state.TotalPrice); err != nil {
		return fmt.Errorf("write cart totals: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush cart table: %w", err)
	}
	return nil
}

func runCartClear(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserIDArg("cart-clear", args)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		if clearErr := store.Clear(ctx, "cart:"+userID); clearErr != nil {
			return fmt.Errorf("clear cart: %w", clearErr)
		}
		cmdCtx.Logger.Info("cart cleared", "user_id", userID)
		return writef(os.Stdout, "Cart cleared for user %s\n", userID)
	})
}

func runWishlistShow(cmdCtx *commandContext, args []string) error {
	userID, err := parseUserIDArg("wishlist-show", args)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		var state wishlist.State
		found, err := store.Load(ctx, "wishlist:"+userID, &state)
		if err != nil {
			return fmt.Errorf("load wishlist: %w", err)
		}
		if !found {
			return writef(os.Stdout, "No persisted wishlist for user %s\n", userID)
		}

		if err := writef(os.Stdout, "\nWishlist for user %s (%d items)\n", userID, state.TotalItems); err != nil {
			return fmt.Errorf("write wishlist header: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if err := writeln(w, "Product ID\tName\tPrice"); err != nil {
			return fmt.Errorf("write wishlist columns: %w", err)
		}
		for _, item := range state.Items {
			if err := writef(w, "%s\t%s\t%.2f\n",
				item.Product.ID, item.Product.Name, item.Product.Price); err != nil {
				return fmt.Errorf("write wishlist item %q: %w", item.Product.ID, err)
			}
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush wishlist table: %w", err)
		}
		return printLastWrite(ctx, store, "wishlist:"+userID)
	})
}

// keyLister is satisfied by every shipped backend; the port stays narrow
// because the services never enumerate keys.
type keyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

func runStoreKeys(cmdCtx *commandContext, _ []string) error {
	return withInfra(cmdCtx, func(ctx context.Context, infra *bootstrap.Infra) error {
		lister, ok := infra.KV.(keyLister)
		if !ok {
			return fmt.Errorf("backend %q does not support key listing", cmdCtx.Config.Storage.Backend)
		}
		keys, err := lister.Keys(ctx)
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		if len(keys) == 0 {
			return writeln(os.Stdout, "(no keys found)")
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := writeln(os.Stdout, key); err != nil {
				return fmt.Errorf("write key: %w", err)
			}
		}
		return writef(os.Stdout, "\nTotal keys: %d\n", len(keys))
	})
}

func runStoreGet(cmdCtx *commandContext, args []string) error {
	key, err := parseKeyArg("store-get", args)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		var raw json.RawMessage
		found, err := store.Load(ctx, key, &raw)
		if err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
		if !found {
			return writef(os.Stdout, "Key %s not found (no usable primary or backup)\n", key)
		}
		if err := writef(os.Stdout, "%s\n", raw); err != nil {
			return fmt.Errorf("write value: %w", err)
		}
		return printLastWrite(ctx, store, key)
	})
}

func runStoreRepair(cmdCtx *commandContext, args []string) error {
	key, err := parseKeyArg("store-repair", args)
	if err != nil {
		return err
	}
	return withStore(cmdCtx, func(ctx context.Context, store *data.DurableStore) error {
		// Load goes primary-then-backup and rewrites the primary when it
		// has to fall back, so a read is the repair.
		var raw json.RawMessage
		found, err := store.Load(ctx, key, &raw)
		if err != nil {
			return fmt.Errorf("repair %s: %w", key, err)
		}
		if !found {
			return writef(os.Stdout, "Key %s has no recoverable value; nothing to repair\n", key)
		}
		cmdCtx.Logger.Info("store key verified", "key", key, "bytes", len(raw))
		return writef(os.Stdout, "Key %s holds a readable value (%d bytes)\n", key, len(raw))
	})
}

func printLastWrite(ctx context.Context, store *data.DurableStore, key string) error {
	at, ok, err := store.LastWrite(ctx, key)
	if err != nil || !ok {
		return nil
	}
	return writef(os.Stdout, "Last written: %s\n", at.Format(time.RFC3339))
}

func redactToken(token string) string {
	const visible = 8
	if len(token) <= visible {
		return token
	}
	return token[:visible] + "..." + fmt.Sprintf("(%d chars)", len(token))
}

func parseUserIDArg(cmdName string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var userID string
	fs.StringVar(&userID, "user-id", "", "User whose state to operate on (required)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("--user-id is required")
	}
	return userID, nil
}

func parseKeyArg(cmdName string, args []string) (string, error) {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var key string
	fs.StringVar(&key, "key", "", "Storage key to operate on (required)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("--key is required")
	}
	return key, nil
}

func parseYesFlag(cmdName string, args []string) (bool, error) {
	fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var yes bool
	fs.BoolVar(&yes, "yes", false, "Skip confirmation")
	if err := fs.Parse(args); err != nil {
		return false, err
	}
	return yes, nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
