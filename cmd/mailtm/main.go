// Package main implements a command line client for mail.tm style disposable mail services.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"
	"strings"

	"github.com/google/subcommands"
	"github.com/mailtm/mailtm/pkg/config"
	"github.com/mailtm/mailtm/pkg/rest/client"
	"github.com/mailtm/mailtm/pkg/rest/model"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// version contains the build version number, populated during linking.
	version = "undefined"

	// date contains the build date, populated during linking.
	date = "undefined"
)

var (
	conf   = &config.Root{}
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	errNoCredentials = errors.New(
		"no credentials: set MAILTM_ACCOUNT_TOKEN, or MAILTM_ACCOUNT_ADDRESS and MAILTM_ACCOUNT_PASSWORD")
	errUnavailable = errors.New("message not available")
)

// Allow subcommands to accept regular expressions as flags
type regexFlag struct {
	*regexp.Regexp
}

func (r *regexFlag) Defined() bool {
	return r.Regexp != nil
}

func (r *regexFlag) Set(pattern string) error {
	if pattern == "" {
		r.Regexp = nil
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	r.Regexp = re
	return nil
}

func (r *regexFlag) String() string {
	if r.Regexp == nil {
		return ""
	}
	return r.Regexp.String()
}

// regexFlag must implement flag.Value
var _ flag.Value = &regexFlag{}

func main() {
	help := flag.Bool("help", false, "Displays help on flags and env variables.")
	logjson := flag.Bool("logjson", false, "Logs are written in JSON format.")
	loglevel := flag.String("loglevel", "", "Overrides MAILTM_LOGLEVEL.")
	baseURL := flag.String("baseurl", "", "Overrides MAILTM_API_BASEURL.")

	// Important top-level flags
	subcommands.ImportantFlag("baseurl")

	// Setup standard helpers
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	// Setup my commands
	subcommands.Register(&domainsCmd{}, "account")
	subcommands.Register(&newCmd{}, "account")
	subcommands.Register(&listCmd{}, "messages")
	subcommands.Register(&countCmd{}, "messages")
	subcommands.Register(&showCmd{}, "messages")
	subcommands.Register(&sourceCmd{}, "messages")
	subcommands.Register(&matchCmd{}, "messages")
	subcommands.Register(&mboxCmd{}, "messages")

	// Parse and execute
	flag.Parse()
	if *help {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "")
		config.Usage()
		return
	}
	config.Version = version
	config.BuildDate = date
	var err error
	conf, err = config.Process()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *loglevel != "" {
		conf.LogLevel = *loglevel
	}
	if *baseURL != "" {
		conf.API.BaseURL = *baseURL
	}
	if err := openLog(conf.LogLevel, *logjson); err != nil {
		fmt.Fprintf(os.Stderr, "Log error: %v\n", err)
		os.Exit(1)
	}
	log.Debug().Str("version", config.Version).Str("baseURL", conf.API.BaseURL).
		Msg("mailtm starting")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

// openLog configures zerolog output to stderr.
func openLog(level string, json bool) error {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		return fmt.Errorf("log level %q not one of: debug, info, warn, error", level)
	}
	if json {
		log.Logger = log.Output(stderr)
		return nil
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     stderr,
		NoColor: runtime.GOOS == "windows",
	})
	return nil
}

// newClient builds a REST client from the configuration.
func newClient() (*client.Client, error) {
	return client.New(conf.API.BaseURL, client.WithClientOptsTimeout(conf.API.Timeout))
}

// inbox returns the message controller of the configured account, logging in when no token
// is configured.
func inbox(ctx context.Context) (*client.MessageController, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	acct := conf.Account
	switch {
	case acct.Token != "":
		return c.Messages(model.Token(acct.Token)), nil
	case acct.HasCredentials():
		a, err := c.Login(ctx, acct.Address, acct.Password)
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", acct.Address, err)
		}
		return a.Messages(), nil
	}
	return nil, errNoCredentials
}

func fatal(msg string, err error) subcommands.ExitStatus {
	fmt.Fprintf(stderr, "%s: %v\n", msg, err)
	return subcommands.ExitFailure
}

func usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(stderr, msg)
	return subcommands.ExitUsageError
}

func outputJSON(v any) error {
	jsonEncoder := json.NewEncoder(stdout)
	jsonEncoder.SetEscapeHTML(false)
	jsonEncoder.SetIndent("", "  ")
	return jsonEncoder.Encode(v)
}
