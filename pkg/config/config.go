package config

import (
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "mailtm"
	tableFormat = `mailtm is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel string `required:"true" default:"WARN" desc:"DEBUG, INFO, WARN, or ERROR"`
	API      API
	Account  Account
}

// API contains the service endpoint configuration.
type API struct {
	BaseURL string        `required:"true" default:"https://api.mail.tm" desc:"Service base URL"`
	Timeout time.Duration `required:"true" default:"30s" desc:"Request timeout"`
}

// Account holds the credentials used by message commands. A token takes precedence over
// address and password.
type Account struct {
	Address  string `desc:"Account address"`
	Password string `desc:"Account password"`
	Token    string `desc:"Bearer token"`
}

// HasCredentials reports whether a is able to authenticate.
func (a Account) HasCredentials() bool {
	return a.Token != "" || (a.Address != "" && a.Password != "")
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage prints out the envconfig usage to Stderr.
func Usage() {
	tabs := tabwriter.NewWriter(os.Stderr, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		log.Fatalf("Unable to parse env config: %v", err)
	}
	tabs.Flush()
}
