// Package shell provides the interactive xlkit REPL.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

// CommandRunner executes an xlkit command and writes its output.
// This is set by the cmd/shell package to avoid import cycles.
type CommandRunner func(ctx context.Context, args []string, stdout, stderr io.Writer) error

// DefaultRunner is the command runner used by the shell session.
var DefaultRunner CommandRunner

// workbookCommands accept --file and get the session workbook by default.
var workbookCommands = map[string]bool{
	"create": true, "delete": true, "open": true, "update": true,
	"sheet": true, "run": true, "watch": true, "doctor": true,
}

// Session manages an interactive xlkit shell session.
type Session struct {
	// Workbook is passed as --file to workbook commands that do not name one.
	Workbook       string
	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of top-level commands for completion.
	KnownCommands []string

	out    io.Writer
	errOut io.Writer
}

// NewSession creates a new interactive session. historyFile may be empty,
// in which case readline keeps history in memory only.
func NewSession(historyFile string) (*Session, error) {
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0700); err != nil {
			return nil, fmt.Errorf("could not create history directory: %w", err)
		}
	}

	return &Session{
		HistoryFile: historyFile,
		StartTime:   time.Now(),
		KnownCommands: []string{
			"create", "delete", "open", "update", "sheet", "run",
			"watch", "config", "audit", "doctor", "version",
			"use", "help", "history", "exit", "quit",
		},
		out:    os.Stdout,
		errOut: os.Stderr,
	}, nil
}

// SetOutput redirects the session's own messages.
func (s *Session) SetOutput(out, errOut io.Writer) {
	s.out = out
	s.errOut = errOut
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	if DefaultRunner == nil {
		return fmt.Errorf("shell runner not configured")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "xlkit — interactive shell")
	fmt.Fprintln(s.out, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		if done := s.Handle(ctx, line); done {
			return nil
		}
		rl.SetPrompt(s.prompt())
	}

	return nil
}

// Handle processes one input line and reports whether the session should
// end.
func (s *Session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	s.CommandHistory = append(s.CommandHistory, line)

	switch {
	case line == "exit" || line == "quit":
		fmt.Fprintf(s.out, "\nSession ended. %d commands run in %s.\n",
			len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
		return true
	case line == "help":
		s.printHelp()
	case line == "history":
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(s.out, "  %d  %s\n", i+1, cmd)
		}
	case line == "use":
		if s.Workbook == "" {
			fmt.Fprintln(s.out, "No workbook selected. Use: use <file.xlsx>")
		} else {
			fmt.Fprintf(s.out, "Current workbook: %s\n", s.Workbook)
		}
	case strings.HasPrefix(line, "use "):
		s.Workbook = strings.TrimSpace(strings.TrimPrefix(line, "use "))
		fmt.Fprintf(s.out, "Current workbook: %s\n", s.Workbook)
	default:
		output, err := s.Eval(ctx, line)
		if output != "" {
			fmt.Fprint(s.out, output)
			if !strings.HasSuffix(output, "\n") {
				fmt.Fprintln(s.out)
			}
		}
		if err != nil {
			fmt.Fprintf(s.errOut, "Error: %s\n", err)
		}
	}
	return false
}

// Eval runs a single command string and returns its output.
func (s *Session) Eval(ctx context.Context, command string) (string, error) {
	if DefaultRunner == nil {
		return "", fmt.Errorf("shell runner not configured")
	}

	args, err := splitArgs(command)
	if err != nil {
		return "", err
	}
	if len(args) == 0 {
		return "", nil
	}
	args = s.withWorkbook(args)

	var stdout, stderr bytes.Buffer
	err = DefaultRunner(ctx, args, &stdout, &stderr)

	output := stdout.String()
	s.LastOutput = output

	if errOut := stderr.String(); errOut != "" && err != nil {
		return output, fmt.Errorf("%s", strings.TrimSpace(errOut))
	}

	return output, err
}

func (s *Session) withWorkbook(args []string) []string {
	if s.Workbook == "" || !workbookCommands[args[0]] {
		return args
	}
	for _, a := range args[1:] {
		if a == "-f" || a == "--file" || strings.HasPrefix(a, "--file=") {
			return args
		}
	}
	return append(args, "--file", s.Workbook)
}

// splitArgs splits a command line on whitespace, keeping single- or
// double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	// Complete top-level command
	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		return matchPrefix(s.KnownCommands, parts[0])
	}

	if strings.HasPrefix(parts[len(parts)-1], "-") {
		return matchPrefix([]string{"--file", "--json", "--verbose", "--no-color", "--help"}, parts[len(parts)-1])
	}

	subcommands := subcommandsFor(parts[0])
	if len(parts) == 1 {
		return subcommands
	}
	if len(parts) == 2 && !strings.HasSuffix(input, " ") {
		return matchPrefix(subcommands, parts[1])
	}

	return nil
}

func matchPrefix(candidates []string, prefix string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return matches
}

func subcommandsFor(parent string) []string {
	subs := map[string][]string{
		"sheet":  {"create", "rename", "delete"},
		"config": {"init", "show", "get", "set", "path", "reset", "validate", "env"},
		"audit":  {"log", "clear", "status"},
	}
	return subs[parent]
}

func (s *Session) printHelp() {
	fmt.Fprintln(s.out, "Available commands:")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "  Workbook:   create, delete, open, update")
	fmt.Fprintln(s.out, "  Sheets:     sheet create/rename/delete")
	fmt.Fprintln(s.out, "  Batch:      run <script.yaml>, watch")
	fmt.Fprintln(s.out, "  System:     config, audit, doctor, version")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Shell commands:")
	fmt.Fprintln(s.out, "  use <file>  set the workbook used when --file is omitted")
	fmt.Fprintln(s.out, "  history     show command history")
	fmt.Fprintln(s.out, "  exit        exit the shell")
}

func (s *Session) prompt() string {
	if s.Workbook == "" {
		return "xlkit> "
	}
	return fmt.Sprintf("xlkit(%s)> ", filepath.Base(s.Workbook))
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		var subItems []readline.PrefixCompleterInterface
		for _, sub := range subcommandsFor(cmd) {
			subItems = append(subItems, readline.PcItem(sub))
		}
		items = append(items, readline.PcItem(cmd, subItems...))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
