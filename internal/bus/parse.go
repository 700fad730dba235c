package bus

import (
	"fmt"
	"strings"

	"github.com/google/shlex"

	"homelink/internal/errors"
)

// Command is a parsed plugin invocation: `p <plugin> <action> [args...]`.
type Command struct {
	// Plugin is the registry name of the target plugin.
	Plugin string

	// Action is the operation the plugin should perform.
	Action string

	// Args are the remaining tokens, shell-quoting already resolved.
	Args []string

	// Exit is set for exit/quit/q lines instead of a plugin target.
	Exit bool
}

// String renders the command back to a readable form for logs.
func (c Command) String() string {
	if c.Exit {
		return "exit"
	}
	parts := append([]string{"p", c.Plugin, c.Action}, c.Args...)
	return strings.Join(parts, " ")
}

// ParseCommand parses one command line. The second return is false for
// blank lines and comments. Quoting follows shell rules, so multi-word
// arguments survive: p todo add "water the plants" daily.
func ParseCommand(line string) (Command, bool, error) {
	// Comments run to end of line. Stripping before tokenizing means a
	// quoted '#' is lost too, which matches how the bootstrap scripts
	// have always been written.
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false, nil
	}

	tokens, err := shlex.Split(line)
	if err != nil {
		return Command{}, false, fmt.Errorf("%w: %v", errors.ErrInvalidCommand, err)
	}
	if len(tokens) == 0 {
		return Command{}, false, nil
	}

	switch tokens[0] {
	case "exit", "quit", "q":
		return Command{Exit: true}, true, nil
	case "p":
		if len(tokens) < 3 {
			return Command{}, false, fmt.Errorf("%w: want p <plugin> <action> [args...], got %q", errors.ErrInvalidCommand, line)
		}
		return Command{
			Plugin: tokens[1],
			Action: tokens[2],
			Args:   tokens[3:],
		}, true, nil
	default:
		return Command{}, false, fmt.Errorf("%w: unknown verb %q", errors.ErrInvalidCommand, tokens[0])
	}
}
