package apply

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

var ErrNoClipboard = errors.New("no clipboard utility available")

// Utility is an external command that reads the clipboard content from stdin.
type Utility struct {
	Name string
	Args []string
}

func (u Utility) String() string {
	return strings.TrimSpace(u.Name + " " + strings.Join(u.Args, " "))
}

// DefaultUtilities returns the primary and fallback clipboard commands for the platform.
func DefaultUtilities() []Utility {
	switch runtime.GOOS {
	case "darwin":
		return []Utility{{Name: "pbcopy"}}
	case "windows":
		return []Utility{{Name: "clip"}}
	default:
		return []Utility{
			{Name: "xclip", Args: []string{"-selection", "clipboard"}},
			{Name: "xsel", Args: []string{"--clipboard", "--input"}},
		}
	}
}

// Clipboard copies text using the first utility found on PATH. When none is
// installed it falls back to atotto/clipboard, which knows a few more.
type Clipboard struct {
	Utilities []Utility

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args []string, stdin string) (string, error)
	fallback func(string) error
}

func NewClipboard(utils []Utility) *Clipboard {
	if len(utils) == 0 {
		utils = DefaultUtilities()
	}
	return &Clipboard{
		Utilities: utils,
		lookPath:  exec.LookPath,
		run:       runWithStdin,
		fallback:  clipboard.WriteAll,
	}
}

// Copy returns the name of the mechanism that took the text.
func (c *Clipboard) Copy(ctx context.Context, text string) (string, error) {
	var errs []error
	for _, u := range c.Utilities {
		if _, err := c.lookPath(u.Name); err != nil {
			continue
		}
		out, err := c.run(ctx, u.Name, u.Args, text)
		if err == nil {
			return u.String(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w (%s)", u, err, strings.TrimSpace(out)))
	}

	if !clipboard.Unsupported && c.fallback != nil {
		if err := c.fallback(text); err == nil {
			return "system clipboard", nil
		} else {
			errs = append(errs, err)
		}
	}
	return "", errors.Join(append([]error{ErrNoClipboard}, errs...)...)
}

// Hint names the commands Copy tries, for telling the user what to install.
func (c *Clipboard) Hint() string {
	names := make([]string, 0, len(c.Utilities))
	for _, u := range c.Utilities {
		names = append(names, u.Name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " o " + names[len(names)-1]
	}
}

// runWithStdin executes name with text on stdin, capturing combined stdout/stderr.
func runWithStdin(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	return buf.String(), err
}
