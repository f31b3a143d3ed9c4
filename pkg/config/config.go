// Package config loads prefsync configuration from the environment.
package config

import (
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "prefsync"
	tableFormat = `Prefsync is configured via the environment. The following environment
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
	LogLevel string `required:"true" default:"info" desc:"debug, info, warn, or error"`
	Identity Identity
	Local    Local
	Daemon   Daemon
}

// Identity contains the identity service client configuration.
type Identity struct {
	BaseURL string        `required:"true" default:"http://localhost:9500" desc:"Identity service base URL"`
	Timeout time.Duration `required:"true" default:"30s" desc:"HTTP client timeout"`
}

// Local contains the local preference store configuration.
type Local struct {
	Path string `required:"true" default:"/tmp/prefsync" desc:"Local preference store path"`
}

// Daemon contains the development identity daemon configuration.
type Daemon struct {
	Addr    string        `required:"true" default:"0.0.0.0:9500" desc:"Identity daemon IP4 host:port"`
	Users   string        `default:"demo:demo" desc:"Seed accounts, comma separated user:pass pairs"`
	MaxIdle time.Duration `required:"true" default:"60s" desc:"HTTP read/write timeout"`
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
