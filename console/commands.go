package console

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/reeveci/strqueue/config"
	"github.com/reeveci/strqueue/fingerprint"
	"github.com/reeveci/strqueue/plugin"
	"github.com/reeveci/strqueue/script"
)

type command struct {
	usage string
	help  string
	// maxArgs < 0 means unlimited
	minArgs, maxArgs int
	run              func(c *Console, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":     {usage: "new", help: "Create a new queue, freeing the current one", run: (*Console).cmdNew},
		"free":    {usage: "free", help: "Free the current queue", run: (*Console).cmdFree},
		"ih":      {usage: "ih str [n]", help: "Insert str at head n times (default 1)", minArgs: 1, maxArgs: 2, run: (*Console).cmdInsertHead},
		"it":      {usage: "it str [n]", help: "Insert str at tail n times (default 1)", minArgs: 1, maxArgs: 2, run: (*Console).cmdInsertTail},
		"rh":      {usage: "rh [str]", help: "Remove from head, optionally comparing to str", maxArgs: 1, run: (*Console).cmdRemoveHead},
		"rhq":     {usage: "rhq", help: "Remove from head without reporting the value", run: (*Console).cmdRemoveHeadQuiet},
		"size":    {usage: "size", help: "Show the queue size", run: (*Console).cmdSize},
		"reverse": {usage: "reverse", help: "Reverse the queue", run: (*Console).cmdReverse},
		"sort":    {usage: "sort", help: "Sort the queue ascending", run: (*Console).cmdSort},
		"show":    {usage: "show", help: "Show the queue contents", run: (*Console).cmdShow},
		"mark":    {usage: "mark", help: "Fingerprint the current contents", run: (*Console).cmdMark},
		"verify":  {usage: "verify", help: "Compare the contents to the last mark", run: (*Console).cmdVerify},
		"option":  {usage: "option [name value]", help: "Show options or set fail (percent) or bufsize", maxArgs: 2, run: (*Console).cmdOption},
		"replay":  {usage: "replay", help: "Show the session output recorded so far", run: (*Console).cmdReplay},
		"stats":   {usage: "stats", help: "Show storage held by the driver", run: (*Console).cmdStats},
		"source":  {usage: "source file", help: "Execute commands from file", minArgs: 1, maxArgs: 1, run: (*Console).cmdSource},
		"help":    {usage: "help", help: "Show this list", run: (*Console).cmdHelp},
		"quit":    {usage: "quit", help: "Exit the console", run: (*Console).cmdQuit},
	}
}

func repeat(args []string) (int, error) {
	if len(args) < 2 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid repeat count %q", args[1])
	}
	return n, nil
}

func (c *Console) cmdNew(args []string) error {
	if c.handle != 0 {
		if err := c.driver.Free(c.handle); err != nil {
			return err
		}
		c.handle = 0
	}

	h, err := c.driver.New()
	if err != nil {
		return err
	}
	c.handle = h
	return c.changed()
}

func (c *Console) cmdFree(args []string) error {
	if err := c.driver.Free(c.handle); err != nil {
		return err
	}
	c.handle = 0
	return c.show()
}

func (c *Console) insert(args []string, insert func(plugin.Handle, string) error) error {
	n, err := repeat(args)
	if err != nil {
		return err
	}

	for i := 0; i < n; i += 1 {
		if err := insert(c.handle, args[0]); err != nil {
			if checkErr := c.driver.Check(c.handle); checkErr != nil {
				return errors.Join(err, checkErr)
			}
			return err
		}
	}
	return c.changed()
}

func (c *Console) cmdInsertHead(args []string) error {
	return c.insert(args, c.driver.InsertHead)
}

func (c *Console) cmdInsertTail(args []string) error {
	return c.insert(args, c.driver.InsertTail)
}

func (c *Console) cmdRemoveHead(args []string) error {
	value, err := c.driver.RemoveHead(c.handle, c.bufsize)
	if err != nil {
		return err
	}

	c.printf("Removed %s from queue\n", value)
	if err := c.changed(); err != nil {
		return err
	}
	if len(args) > 0 && args[0] != value {
		return fmt.Errorf("removed value %q does not match expected value %q", value, args[0])
	}
	return nil
}

func (c *Console) cmdRemoveHeadQuiet(args []string) error {
	if _, err := c.driver.RemoveHead(c.handle, -1); err != nil {
		return err
	}

	c.printf("Removed element from queue\n")
	return c.changed()
}

func (c *Console) cmdSize(args []string) error {
	size, err := c.driver.Size(c.handle)
	if err != nil {
		return err
	}
	c.printf("Queue size = %d\n", size)
	return nil
}

func (c *Console) cmdReverse(args []string) error {
	if err := c.driver.Reverse(c.handle); err != nil {
		return err
	}
	return c.changed()
}

func (c *Console) cmdSort(args []string) error {
	if err := c.driver.Sort(c.handle); err != nil {
		return err
	}
	return c.changed()
}

func (c *Console) cmdShow(args []string) error {
	return c.show()
}

func (c *Console) cmdMark(args []string) error {
	values, err := c.driver.Values(c.handle)
	if err != nil {
		return err
	}

	mark, err := fingerprint.Of(values)
	if err != nil {
		return err
	}
	c.mark = mark
	c.printf("Marked %d elements\n", len(values))
	return nil
}

func (c *Console) cmdVerify(args []string) error {
	if c.mark == "" {
		return fmt.Errorf("no mark set")
	}

	if err := fingerprint.Validate(c.mark); err != nil {
		return fmt.Errorf("invalid mark - %w", err)
	}

	values, err := c.driver.Values(c.handle)
	if err != nil {
		return err
	}

	ok, err := fingerprint.Matches(values, c.mark)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("queue contents differ from mark")
	}
	c.printf("Queue matches mark\n")
	return nil
}

func (c *Console) cmdOption(args []string) error {
	switch len(args) {
	case 0:
		stats, err := c.driver.Stats()
		if err != nil {
			return err
		}
		c.printf("bufsize = %d\n", c.bufsize)
		c.printf("fail = %d\n", stats.FailPercent)
		return nil
	case 1:
		return fmt.Errorf("missing value for option %s", args[0])
	}

	name, value := args[0], args[1]
	switch name {
	case "bufsize":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > config.MAX_BUFSIZE {
			return fmt.Errorf("invalid bufsize %q - expected 0 to %d", value, config.MAX_BUFSIZE)
		}
		c.bufsize = n

	case "fail":
		if err := c.driver.Configure(map[string]string{plugin.SETTING_FAIL: value}); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown option %q", name)
	}

	c.printf("%s = %s\n", name, value)
	return nil
}

func (c *Console) cmdStats(args []string) error {
	stats, err := c.driver.Stats()
	if err != nil {
		return err
	}
	c.printf("Allocated blocks: %d (queues %d, elements %d, values %d, bytes %d), refused %d\n",
		stats.Blocks(), stats.Queues, stats.Elements, stats.Values, stats.Bytes, stats.Refused)
	return nil
}

// cmdReplay copies what the transcript holds at this point to the output.
// The copy itself is not recorded.
func (c *Console) cmdReplay(args []string) error {
	r, err := c.transcript.Reader()
	if err != nil {
		return err
	}
	defer r.Close()

	size, _ := r.Size()
	_, err = io.Copy(c.plain, io.LimitReader(r, size))
	return err
}

func (c *Console) cmdSource(args []string) error {
	return c.source(args[0])
}

func (c *Console) source(path string) error {
	if c.depth >= maxSourceDepth {
		return fmt.Errorf("scripts nested deeper than %d", maxSourceDepth)
	}

	f, err := c.open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	c.depth += 1
	defer func() { c.depth -= 1 }()

	err = script.Scan(f, func(lineno int, line string) error {
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

func (c *Console) cmdHelp(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		cmd := commands[name]
		c.printf("  %-20s | %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func (c *Console) cmdQuit(args []string) error {
	c.quit = true
	return nil
}
