package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
)

var envReplacer = strings.NewReplacer(".", "_")

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// keys lists every setting xlkit understands, in display order.
var keys = []string{
	"workbook.default_sheet",
	"output.format",
	"output.color",
	"log.level",
	"audit.enabled",
	"audit.file",
	"shell.history",
}

// Wizard runs the interactive setup wizard.
// If reader is nil, reads from os.Stdin.
func Wizard(reader io.Reader, out io.Writer) error {
	if reader == nil {
		reader = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(reader)

	fmt.Fprintln(out, "xlkit setup")
	fmt.Fprintln(out, strings.Repeat("-", 32))

	ask := func(prompt, key string) {
		fmt.Fprintf(out, "%s [%s]: ", prompt, viper.GetString(key))
		if !scanner.Scan() {
			return
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			viper.Set(key, answer)
		}
	}

	ask("Default sheet name for new workbooks", "workbook.default_sheet")
	ask("Colour output (true/false)", "output.color")
	ask("Log level (debug, info, warn, error)", "log.level")
	ask("Record an audit log of changes (true/false)", "audit.enabled")

	if err := SaveConfig(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nSaved %s\n", ConfigPath())
	return nil
}

// WizardNonInteractive writes the defaults to disk without prompting.
func WizardNonInteractive() error {
	setDefaults()
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	sheet := viper.GetString("workbook.default_sheet")
	if err := checkSheetName(sheet); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "workbook.default_sheet",
			Severity: "error",
			Message:  fmt.Sprintf("default sheet name %q is not valid: %v", sheet, err),
			Fix:      "xlkit config set workbook.default_sheet Sheet1",
		})
	}

	switch format := viper.GetString("output.format"); format {
	case "text", "json":
	default:
		issues = append(issues, ConfigIssue{
			Key:      "output.format",
			Severity: "error",
			Message:  fmt.Sprintf("unknown output format %q", format),
			Fix:      "xlkit config set output.format text",
		})
	}

	level := viper.GetString("log.level")
	if _, err := logrus.ParseLevel(level); err != nil {
		issues = append(issues, ConfigIssue{
			Key:      "log.level",
			Severity: "warning",
			Message:  fmt.Sprintf("unknown log level %q — falling back to warn", level),
			Fix:      "xlkit config set log.level warn",
		})
	}

	if viper.GetBool("audit.enabled") {
		issues = append(issues, ConfigIssue{
			Key:      "audit.file",
			Severity: "info",
			Message:  fmt.Sprintf("audit log enabled at %s", viper.GetString("audit.file")),
		})
	}

	return issues
}

// checkSheetName applies Excel's sheet title rules.
func checkSheetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is empty")
	}
	f := excelize.NewFile()
	defer f.Close()
	if name == f.GetSheetName(0) {
		return nil
	}
	return f.SetSheetName(f.GetSheetName(0), name)
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string, len(keys))
	for _, k := range keys {
		if v := viper.GetString(k); v != "" {
			env["XLKIT_"+strings.ToUpper(envReplacer.Replace(k))] = v
		}
	}
	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if !known(key) {
		return fmt.Errorf("unknown config key %q — valid keys: %s", key, strings.Join(keys, ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// Keys returns the known config keys.
func Keys() []string {
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

func known(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Reset()
	setDefaults()
	return nil
}

// SaveConfig writes the current config to ~/.xlkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	section := ""
	for _, k := range keys {
		group, name, _ := strings.Cut(k, ".")
		if group != section {
			if section != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(group + "\n")
			section = group
		}
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", name+":", viper.GetString(k)))
	}

	return sb.String()
}
