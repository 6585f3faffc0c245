// Package console implements a line-oriented command interpreter that drives
// queues through a plugin.Driver. Every command that changes a queue is
// followed by a consistency check, and failures are reported in the output
// and counted rather than aborting the session.
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-hclog"

	"github.com/reeveci/strqueue/config"
	"github.com/reeveci/strqueue/plugin"
	"github.com/reeveci/strqueue/script"
	"github.com/reeveci/strqueue/streams"
)

// Values beyond this many are elided by show.
const SHOW_LIMIT = 50

const maxSourceDepth = 16

var errQuit = errors.New("quit")

type Options struct {
	Driver plugin.Driver
	Logger hclog.Logger
	Output io.Writer

	// Transcript records everything written to Output, for replay.
	Transcript *streams.Transcript

	BufSize int
	Echo    bool

	// Open opens script files for the source command. Defaults to os.Open.
	Open func(path string) (io.ReadCloser, error)
}

type Console struct {
	driver  plugin.Driver
	logger  hclog.Logger
	out     io.Writer
	plain   io.Writer
	bufsize int
	echo    bool
	open    func(path string) (io.ReadCloser, error)

	transcript *streams.Transcript

	handle plugin.Handle
	mark   string
	errors int
	quit   bool
	depth  int
}

func New(opts Options) *Console {
	c := &Console{
		driver:  opts.Driver,
		logger:  opts.Logger,
		out:     opts.Output,
		bufsize: opts.BufSize,
		echo:    opts.Echo,
		open:    opts.Open,

		transcript: opts.Transcript,
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if c.out == nil {
		c.out = io.Discard
	}
	c.plain = c.out
	if c.transcript.Available() {
		c.out = io.MultiWriter(c.plain, c.transcript)
	}
	if c.bufsize <= 0 {
		c.bufsize = config.DEFAULT_BUFSIZE
	}
	if c.open == nil {
		c.open = func(path string) (io.ReadCloser, error) { return os.Open(path) }
	}
	return c
}

// Errors returns the number of commands that failed so far.
func (c *Console) Errors() int {
	return c.errors
}

// Quit reports whether the quit command was executed.
func (c *Console) Quit() bool {
	return c.quit
}

func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *Console) fail(err error) error {
	c.errors += 1
	c.printf("ERROR: %s\n", err)
	c.logger.Error("command failed", "error", err)
	return err
}

// Run executes commands read from r until the input ends or quit is
// executed. Failed commands do not stop the session; only read errors are
// returned.
func (c *Console) Run(r io.Reader) error {
	err := script.Scan(r, func(lineno int, line string) error {
		c.logger.Trace("read command", "line", lineno)
		c.Exec(line)
		if c.quit {
			return errQuit
		}
		return nil
	})
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// Exec executes a single command line.
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return c.fail(fmt.Errorf("error parsing %q - %w", line, err))
	}
	if len(args) == 0 {
		return nil
	}

	if c.echo {
		c.printf("cmd> %s\n", strings.Join(args, " "))
	}

	name, args := args[0], args[1:]
	cmd, ok := commands[name]
	if !ok {
		return c.fail(fmt.Errorf("unknown command %q - try help", name))
	}
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return c.fail(fmt.Errorf("usage: %s", cmd.usage))
	}

	c.logger.Debug("executing command", "command", name, "args", args)
	if err := cmd.run(c, args); err != nil {
		return c.fail(fmt.Errorf("%s: %w", name, err))
	}
	return nil
}

// Source executes the commands in the script at path.
func (c *Console) Source(path string) error {
	if err := c.source(path); err != nil {
		return c.fail(fmt.Errorf("source: %w", err))
	}
	return nil
}

// Close frees the current queue and reports storage the driver still holds
// as an error.
func (c *Console) Close() error {
	if c.handle != 0 {
		if err := c.driver.Free(c.handle); err != nil {
			return c.fail(fmt.Errorf("error freeing queue - %w", err))
		}
		c.handle = 0
	}

	stats, err := c.driver.Stats()
	if err != nil {
		return c.fail(fmt.Errorf("error reading allocation stats - %w", err))
	}
	if stats.Blocks() > 0 {
		return c.fail(fmt.Errorf("freed queue, but %d blocks are still allocated", stats.Blocks()))
	}
	return nil
}

// changed verifies the queue after a mutation and shows it.
func (c *Console) changed() error {
	if err := c.driver.Check(c.handle); err != nil {
		return err
	}
	return c.show()
}

func (c *Console) show() error {
	if c.handle == 0 {
		c.printf("q = NULL\n")
		return nil
	}

	values, err := c.driver.Values(c.handle)
	if err != nil {
		return err
	}

	shown := values
	if len(shown) > SHOW_LIMIT {
		shown = shown[:SHOW_LIMIT]
	}
	c.printf("q = [%s", strings.Join(shown, " "))
	if len(values) > len(shown) {
		c.printf(" ... (%d more)", len(values)-len(shown))
	}
	c.printf("]\n")
	return nil
}
