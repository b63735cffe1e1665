package config

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultModel is reported in responses when the caller omits "model".
const DefaultModel = "claude-sonnet-4-5-20250929"

type Config struct {
	Host string
	Port int

	// External CLI
	CLICommand string
	CLIArgs    []string
	CLIWorkDir string
	CLIEnv     []string
	// CLITimeout bounds a single CLI run. Zero disables the limit.
	CLITimeout time.Duration

	DefaultModel string

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// A2A
	A2AEnabled bool
	A2APort    int
	AgentName  string
	AgentDesc  string
}

// ListenAddr is the host:port the proxy binds to.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads an optional .env file, then the environment and command-line flags.
// Flags take precedence over environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.CommandLine uses ExitOnError, so this is only reached on validation errors.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// Parse registers the configuration flags on fs and parses args.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	var cliArgs, cliEnv string

	fs.StringVar(&cfg.Host, "host", getEnv("HOST", ""), "Proxy listen host (empty for all interfaces)")
	fs.IntVar(&cfg.Port, "port", getEnvInt("PORT", 3000), "Proxy listen port")

	fs.StringVar(&cfg.CLICommand, "cli-command", getEnv("CLI_COMMAND", "claude"), "External CLI executable invoked once per request")
	fs.StringVar(&cliArgs, "cli-args", getEnv("CLI_ARGS", ""), "Space-separated arguments passed to the CLI")
	fs.StringVar(&cfg.CLIWorkDir, "cli-workdir", getEnv("CLI_WORKDIR", ""), "Working directory for the CLI process")
	fs.StringVar(&cliEnv, "cli-env", getEnv("CLI_ENV", ""), "Comma-separated KEY=VALUE pairs added to the CLI environment")
	fs.DurationVar(&cfg.CLITimeout, "cli-timeout", getEnvDuration("CLI_TIMEOUT", 0), "Maximum duration of one CLI run (0 disables)")

	fs.StringVar(&cfg.DefaultModel, "default-model", getEnv("DEFAULT_MODEL", DefaultModel), "Model name reported when the request omits one")

	fs.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	fs.StringVar(&cfg.LogFile, "log-file", getEnv("LOG_FILE", ""), "Optional rotating log file path")

	fs.BoolVar(&cfg.A2AEnabled, "a2a", getEnvBool("A2A_ENABLED", false), "Enable A2A server alongside the proxy")
	fs.IntVar(&cfg.A2APort, "a2a-port", getEnvInt("A2A_PORT", 8000), "A2A server listen port")
	fs.StringVar(&cfg.AgentName, "agent-name", getEnv("AGENT_NAME", "cli-agent"), "A2A AgentCard name")
	fs.StringVar(&cfg.AgentDesc, "agent-desc", getEnv("AGENT_DESC", "External CLI exposed via A2A protocol"), "A2A AgentCard description")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.CLIArgs = strings.Fields(cliArgs)
	cfg.CLIEnv = splitList(cliEnv)

	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.CLICommand == "" {
		return nil, fmt.Errorf("cli command must not be empty")
	}
	if cfg.CLITimeout < 0 {
		return nil, fmt.Errorf("cli timeout must not be negative")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
