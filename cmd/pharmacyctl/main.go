package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/SHIVAM-GOUR/gbt-pharma-fe-sub000/internal/client"
)

type options struct {
	baseURL   string
	sessionID string
	timeout   time.Duration
	noPersist bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "storefront: %s\n", apiErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pharmacyctl",
		Short:         "Shop the pharmacy storefront from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", getenv("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	root.PersistentFlags().StringVar(&opts.sessionID, "session", os.Getenv("PHARMACY_SESSION"), "session id (defaults to the last one used)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-request timeout")
	root.PersistentFlags().BoolVar(&opts.noPersist, "no-persist", false, "do not remember the session between runs")

	root.AddCommand(
		newProductsCmd(opts),
		newCartCmd(opts),
		newCheckoutCmd(opts),
		newOrdersCmd(opts),
		newTUICmd(opts),
	)
	return root
}

// shopper builds a client for one command and returns a func that remembers
// the session the storefront handed out.
func (o *options) shopper() (*client.Client, func()) {
	sid := o.sessionID
	if sid == "" && !o.noPersist {
		sid = loadSession()
	}
	c := client.New(o.baseURL, sid)
	c.HTTP.Timeout = o.timeout
	return c, func() {
		if o.noPersist {
			return
		}
		if got := c.SessionID(); got != "" && got != sid {
			if err := saveSession(got); err != nil {
				fmt.Fprintln(os.Stderr, "warning: could not save session:", err)
			}
		}
	}
}

func sessionFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pharmacyctl", "session"), nil
}

func loadSession() string {
	path, err := sessionFile()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveSession(id string) error {
	path, err := sessionFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(id+"\n"), 0o600)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
