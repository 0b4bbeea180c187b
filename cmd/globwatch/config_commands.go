package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/globwatch/pkg/config"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
	out        io.Writer
	in         io.Reader // confirmation input; defaults to stdin
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "init":
		return c.runInit(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the current configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	loader := config.NewLoader(c.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch *format {
	case "json":
		return c.showJSON(cfg)
	case "yaml":
		return c.showYAML(cfg, loader.Source())
	default:
		return fmt.Errorf("unknown format: %s", *format)
	}
}

// showYAML displays configuration in YAML format.
func (c *configCommand) showYAML(cfg *config.Config, source string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if source == "" {
		source = "defaults (no config file found)"
	}

	fmt.Fprintln(c.out, "# Current Configuration")
	fmt.Fprintln(c.out, "# Source:", source)
	fmt.Fprintln(c.out)
	_, err = c.out.Write(data)
	return err
}

// showJSON displays configuration in JSON format.
func (c *configCommand) showJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	paths := config.SearchPaths()
	if c.configPath != "" {
		paths = append([]string{c.configPath}, paths...)
	}

	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists)
	}

	source := config.NewLoader(c.configPath).Source()
	if source == "" {
		source = "defaults (no config file found)"
	}

	fmt.Fprintln(c.out)
	_, err := fmt.Fprintln(c.out, "Active configuration:", source)
	return err
}

// runInit writes a default configuration file.
func (c *configCommand) runInit(args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite without confirmation")
	output := fs.String("output", "", "output path (default: ~/.config/globwatch/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.DefaultConfigPath()
	}

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Fprintf(c.out, "Configuration file already exists at: %s\n", outputPath)
		fmt.Fprint(c.out, "Overwrite? [y/N]: ")

		in := c.in
		if in == nil {
			in = os.Stdin
		}
		response, readErr := bufio.NewReader(in).ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if readErr != nil && response == "" {
			fmt.Fprintln(c.out, "\nInit cancelled.")
			return nil
		}
		if response != "y" && response != "yes" {
			fmt.Fprintln(c.out, "Init cancelled.")
			return nil
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.out, "Default configuration written to: %s\n", outputPath)
	return err
}

// showHelp displays help for config command.
func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  globwatch config <subcommand> [flags]

Subcommands:
  show      Display current configuration
  path      Show configuration file paths
  init      Write a default configuration file

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Init Flags:
  -force    Overwrite without confirmation
  -output   Output path for config file

Examples:
  # Show current configuration
  globwatch config show

  # Show configuration in JSON format
  globwatch config show -format json

  # Write defaults to the per-user config file
  globwatch config init
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
