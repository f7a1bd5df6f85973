// Command qcctl resolves and converts marketplace links from the command line
// using the same agent registry as the API server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/qclens/backend/internal/application/link"
	"github.com/qclens/backend/internal/domain/listing"
	"github.com/qclens/backend/internal/infrastructure/config"
	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/interfaces/http/dto"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("qcctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath string
		platform   string
		logLevel   string
	)
	fs.StringVar(&configPath, "config", "", "Path to config.toml (default: ./config.toml)")
	fs.StringVar(&platform, "platform", "", "Platform hint for bare IDs (taobao, weidian, 1688)")
	fs.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.Usage = func() { printUsage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr)
		return 2
	}
	command, rest := rest[0], rest[1:]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Sync()
	}()

	svc, err := newService(configPath, log)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	var opts []listing.ResolveOption
	if platform != "" {
		p, err := listing.ParsePlatform(platform)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 2
		}
		opts = append(opts, listing.WithPlatformHint(p))
	}

	ctx := context.Background()
	var out any

	switch command {
	case "resolve":
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "Usage: qcctl resolve <link-or-id>")
			return 2
		}
		inspection, err := svc.Inspect(ctx, rest[0], opts...)
		if err != nil {
			return fail(stderr, err)
		}
		resp := struct {
			Identity      dto.IdentityResponse `json:"identity"`
			DetectedAgent *dto.AgentResponse   `json:"detected_agent,omitempty"`
		}{Identity: dto.NewIdentityResponse(inspection.Identity)}
		if inspection.DetectedAgent != nil {
			a := dto.NewAgentResponse(*inspection.DetectedAgent)
			resp.DetectedAgent = &a
		}
		out = resp

	case "convert":
		if len(rest) < 1 || len(rest) > 2 {
			fmt.Fprintln(stderr, "Usage: qcctl convert <link-or-id> [agent-id]")
			return 2
		}
		var conv *link.Conversion
		if len(rest) == 2 {
			conv, err = svc.Convert(ctx, rest[0], rest[1], opts...)
		} else {
			conv, err = svc.ConvertAll(ctx, rest[0], opts...)
		}
		if err != nil {
			return fail(stderr, err)
		}
		out = struct {
			Identity dto.IdentityResponse `json:"identity"`
			Links    []link.AgentLink     `json:"links"`
		}{dto.NewIdentityResponse(conv.Identity), conv.Links}

	case "agents":
		out = dto.NewAgentResponses(svc.Agents())

	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func newService(configPath string, log *zap.Logger) (*link.Service, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	registry, err := cfg.Agents.Registry()
	if err != nil {
		return nil, err
	}
	return link.NewService(registry, log), nil
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "%s: %v\n", dto.ErrorCodeFor(err), err)
	return 1
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: qcctl [flags] <command> [args]

Commands:
  resolve <link-or-id>             Show the listing identity behind a link
  convert <link-or-id> [agent-id]  Rewrite a link for one agent or for all agents
  agents                           List registered agents

Flags:
  -config string     Path to config.toml (default: ./config.toml)
  -platform string   Platform hint for bare IDs (taobao, weidian, 1688)
  -log-level string  Log level (default: warn)`)
}
