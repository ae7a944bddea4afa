package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	ddns "github.com/Travis-Britz/cloudflare-ddns"
	"github.com/cloudflare/cloudflare-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var config = struct {
	Record    string
	Token     string
	KeyFile   string
	Autostart bool
	Timer     int
	Debug     bool
}{}

var logger = logrus.New()

func main() {
	// a missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		logger.Fatal(err)
	}
}

func newApp() *cli.App {
	home, _ := os.UserHomeDir()
	return &cli.App{
		Name:  "ddnscf",
		Usage: "keep a Cloudflare A record pointed at this host's public IPv4 address",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "record",
				Usage:       "fully qualified DNS record to update",
				EnvVars:     []string{"CLOUDFLARE_DNS_RECORD"},
				Destination: &config.Record,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "Cloudflare API token with Zone:Read and DNS:Edit permissions",
				EnvVars:     []string{"CLOUDFLARE_API_TOKEN"},
				Destination: &config.Token,
			},
			&cli.StringFlag{
				Name:        "key-file",
				Usage:       "path to a Cloudflare API token file, used when no token is given",
				Value:       filepath.Join(home, ".cloudflare"),
				Destination: &config.KeyFile,
			},
			&cli.BoolFlag{
				Name:        "autostart",
				Usage:       "start the updater automatically",
				Destination: &config.Autostart,
			},
			&cli.IntFlag{
				Name:        "timer",
				Usage:       "update interval in seconds",
				Value:       int(ddns.DefaultInterval / time.Second),
				Destination: &config.Timer,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "enable debug logging",
				Destination: &config.Debug,
			},
			&cli.StringSliceFlag{
				Name:  "ip-url",
				Usage: "public IP lookup service; repeat to require agreement between services",
				Value: cli.NewStringSlice(ddns.DefaultIPService),
			},
			&cli.StringSliceFlag{
				Name:  "interface",
				Usage: "read the IP from these network interfaces instead of a lookup service",
			},
		},
		Before: func(*cli.Context) error {
			setupLogging(config.Debug)
			return nil
		},
		Action: run,
	}
}

func setupLogging(debug bool) {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
}

func run(c *cli.Context) error {
	if config.Timer < 1 {
		return fmt.Errorf("run: %w", &ddns.ConfigError{Field: "timer", Err: fmt.Errorf("must be at least 1 second; got %d", config.Timer)})
	}

	token, err := apiToken(c.Context)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	resolver, err := newResolver(c.StringSlice("ip-url"), c.StringSlice("interface"))
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	client, err := ddns.New(c.Context, config.Record,
		ddns.UsingCloudflare(token),
		ddns.UsingResolver(resolver),
		ddns.WithLogger(logger),
		ddns.WithInterval(time.Duration(config.Timer)*time.Second),
		ddns.WithAutostart(config.Autostart),
	)
	if err != nil {
		return fmt.Errorf("error creating ddns.Client: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"zone_id":   client.Zone().ID,
		"record_id": client.Record().ID,
	}).Infof("Managing DNS record %s", client.Record().Name)

	if !config.Autostart {
		logger.Info("Autostart is disabled; record resolved, exiting")
		return nil
	}

	<-c.Context.Done()
	client.Stop()
	return nil
}

func newResolver(ipURLs, ifaces []string) (ddns.Resolver, error) {
	if len(ifaces) > 0 {
		return ddns.InterfaceResolver(ifaces...), nil
	}
	r, err := ddns.WebResolver(ipURLs...)
	if err != nil {
		return nil, &ddns.ConfigError{Field: "ip-url", Err: err}
	}
	return r, nil
}

// apiToken returns the token from the flags or environment, then the key file,
// and finally prompts for one when running interactively.
func apiToken(ctx context.Context) (string, error) {
	if config.Token != "" {
		return config.Token, nil
	}

	_, err := os.Stat(config.KeyFile)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debugf("key file \"%s\" does not exist", config.KeyFile)
		if !term.IsTerminal(int(syscall.Stdin)) {
			return "", &ddns.ConfigError{Field: "token", Err: errors.New("CLOUDFLARE_API_TOKEN is not set and no key file was found")}
		}
		if err := runSetup(ctx); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	if err := verifyPermissions(config.KeyFile); err != nil {
		return "", err
	}
	return readKey(config.KeyFile)
}

func runSetup(ctx context.Context) error {
	logger.Info("running setup")
	fmt.Printf("Enter Cloudflare API Token: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := strings.TrimSpace(string(bytekey))

	api, err := cloudflare.NewWithAPIToken(key)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	logger.Info("verifying token...")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.Info("token verified successfully")

	return writeKey(config.KeyFile, key)
}

func writeKey(path, key string) error {
	logger.Infof("creating key file at \"%s\"", path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, key); err != nil {
		return fmt.Errorf("unable to write \"%s\": %w", path, err)
	}
	logger.Infof("token written to \"%s\"", path)
	return nil
}

func readKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	return strings.TrimSpace(string(keyb)), nil
}

func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", path, fs.FileMode(perms))
	}
	return nil
}
