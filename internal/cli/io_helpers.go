package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// stdin and stdinIsTTY are swapped by tests.
var (
	stdin      io.Reader = os.Stdin
	stdinIsTTY           = func() bool { return isTerminal(os.Stdin) }
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptConfirm(prompt string) (bool, error) {
	if !stdinIsTTY() {
		return false, errors.New("confirmation required (rerun with --yes in non-interactive mode)")
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stdoutIsTTY() bool {
	return isTerminal(os.Stdout)
}

// terminalPrompter asks the recovery question on the terminal.
type terminalPrompter struct{}

func (terminalPrompter) Confirm(message string) (bool, error) {
	if !stdinIsTTY() {
		return false, errors.New("an interrupted run was found; rerun with --yes to resume it or --fresh to discard it")
	}
	fmt.Println(message)
	return promptConfirm("[y/N]: ")
}

// fixedPrompter answers every question the same way (--yes / --fresh).
type fixedPrompter bool

func (p fixedPrompter) Confirm(string) (bool, error) {
	return bool(p), nil
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func defaultIfEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
