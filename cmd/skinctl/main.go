// Command skinctl is a terminal client for the skin tracker API.
//
// Usage:
//
//	skinctl [global flags] <command> [command flags]
//
// Commands: login, browse, export, import, assign, sync.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"skintracker/internal/client"
	"skintracker/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New("warn", "console")
	defer log.Sync()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Error("skinctl failed", zap.Error(err))
		os.Exit(1)
	}
}

type globals struct {
	api     string
	token   string
	timeout time.Duration
}

func defaults() globals {
	v := viper.New()
	v.SetEnvPrefix("SKINCTL")
	v.SetDefault("API", "http://localhost:8080")
	v.SetDefault("TOKEN", "")
	v.SetDefault("TIMEOUT", "30s")
	v.AutomaticEnv()
	return globals{api: v.GetString("API"), token: v.GetString("TOKEN"), timeout: v.GetDuration("TIMEOUT")}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	g := defaults()
	fs := flag.NewFlagSet("skinctl", flag.ContinueOnError)
	fs.StringVar(&g.api, "api", g.api, "base URL of the API")
	fs.StringVar(&g.token, "token", g.token, "session token")
	fs.DurationVar(&g.timeout, "timeout", g.timeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("missing command: login, browse, export, import, assign or sync")
	}

	c := client.New(g.api, g.timeout)
	c.Token = g.token

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return runLogin(ctx, c, rest, stdout)
	case "browse":
		return runBrowse(ctx, c, rest, stdout)
	case "export":
		return runExport(ctx, c, rest, stdout)
	case "import":
		return runImport(ctx, c, rest, stdin, stdout)
	case "assign":
		return runAssign(ctx, c, rest, stdout)
	case "sync":
		return runSync(ctx, c, rest, stdout)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runLogin(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	identifier := fs.String("u", "", "email or username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	token, err := c.Login(ctx, *identifier, *password)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func runBrowse(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	weapon := fs.String("weapon", "", "weapon filter")
	search := fs.String("search", "", "name search")
	pages := fs.Int("pages", 1, "number of pages to load")
	size := fs.Int("size", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	feed := client.NewFeed(c.Skins, *size)
	feed.SetFilter(*weapon, *search)
	for i := 0; i < *pages && !feed.Done(); i++ {
		if _, err := feed.LoadMore(ctx); err != nil {
			return err
		}
	}
	for _, s := range feed.Items() {
		marks := ""
		if s.InCollection {
			marks += " [owned]"
		}
		if s.InWishlist {
			marks += " [wishlist]"
		}
		fmt.Fprintf(stdout, "%s\t%s\t%s%s\n", s.ID, s.Weapon, s.Name, marks)
	}
	return nil
}

func runExport(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	id := fs.String("id", "", "loadout id")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	data, err := c.ExportLoadout(ctx, *id)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}

func runImport(ctx context.Context, c *client.Client, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("f", "-", "loadout JSON file, - for stdin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if *file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(*file)
	}
	if err != nil {
		return err
	}
	v, err := c.ImportLoadout(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %s (%s)\n", v.Name, v.ID)
	return nil
}

// runAssign applies weapon=skin pairs to a loadout and saves once. An empty
// skin clears the slot.
func runAssign(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("assign", flag.ContinueOnError)
	id := fs.String("id", "", "loadout id, empty creates a new loadout")
	name := fs.String("name", "", "name of a new loadout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var editor *client.Editor
	if *id == "" {
		editor = client.NewEditor(c, *name)
	} else {
		v, err := c.Loadout(ctx, *id)
		if err != nil {
			return err
		}
		editor = client.OpenEditor(c, *v)
		if *name != "" {
			editor.Rename(*name)
		}
	}

	for _, pair := range fs.Args() {
		weapon, skin, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("expected weapon=skinId, got %q", pair)
		}
		var skinID *string
		if skin != "" {
			skinID = &skin
		}
		if err := editor.Select(weapon, skinID); err != nil {
			return err
		}
	}

	if editor.NeedsConfirmation() || editor.State() == client.UnsavedNew {
		if err := editor.Save(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "%s %s, %d weapons assigned\n", editor.ID(), editor.State(), len(editor.Assignments()))
	return nil
}

func runSync(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("CRON_SECRET"), "sync trigger secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	report, err := c.Sync(ctx, *secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "new=%d updated=%d skipped=%d total=%d duration=%s\n",
		report.Stats.New, report.Stats.Updated, report.Stats.Skipped, report.Stats.Total, report.Stats.Duration)
	return nil
}
