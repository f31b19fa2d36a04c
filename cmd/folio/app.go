package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/common"
)

// a CLI run is short lived, so global flags are fine here.
var (
	configPath = flag.String("config", "", "path to folio.toml (default: $FOLIO_CONFIG, then folio.toml next to the binary)")
	logLevel   = flag.String("log-level", "warn", "log level written to stderr")
	style      = flag.String("style", "auto", "render style: auto, dark, light, notty or plain for raw markdown")
)

func register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "portfolio")
	c.Register(&watchlistCmd{}, "portfolio")
	c.Register(&quoteCmd{}, "market")
	c.Register(&historyCmd{}, "market")
	c.Register(&versionCmd{}, "")
}

// newApp loads the configuration and wires services with a plain stderr
// logger, so log lines never interleave with the rendered output.
func newApp() (*app.App, error) {
	common.LoadVersionFromFile()
	cfg, err := common.LoadConfig(app.ResolveConfigPath(*configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.NewAppFromConfig(cfg, common.NewLoggerWithOutput(*logLevel, os.Stderr)), nil
}

// render writes markdown to w, styled for the terminal unless -style=plain.
func render(w io.Writer, markdown string) error {
	out, err := renderMarkdown(markdown, *style)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func renderMarkdown(markdown, style string) (string, error) {
	switch strings.ToLower(style) {
	case "plain":
		return markdown, nil
	case "", "auto":
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			return "", err
		}
		return r.Render(markdown)
	default:
		return glamour.Render(markdown, style)
	}
}

// fail prints err and maps it to the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
