package console

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeveci/strqueue/plugin"
	"github.com/reeveci/strqueue/streams"
)

func newConsole(t *testing.T, scripts map[string]string) (*Console, *bytes.Buffer) {
	t.Helper()

	driver := plugin.NewLocal(nil)
	t.Cleanup(func() {
		assert.NoError(t, driver.Close())
	})

	var out bytes.Buffer
	c := New(Options{
		Driver: driver,
		Output: &out,
		Open: func(path string) (io.ReadCloser, error) {
			s, ok := scripts[path]
			if !ok {
				return nil, fs.ErrNotExist
			}
			return io.NopCloser(strings.NewReader(s)), nil
		},
	})
	return c, &out
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestScenario(t *testing.T) {
	c, out := newConsole(t, nil)

	require.NoError(t, c.Run(strings.NewReader(`
# build a, b, c
new
it a
it b
it c
size
reverse
sort
rh a
size
`)))
	require.NoError(t, c.Close())

	want := []string{
		"q = []",
		"q = [a]",
		"q = [a b]",
		"q = [a b c]",
		"Queue size = 3",
		"q = [c b a]",
		"q = [a b c]",
		"Removed a from queue",
		"q = [b c]",
		"Queue size = 2",
	}
	if diff := cmp.Diff(want, lines(out.String())); diff != "" {
		t.Errorf("output diff (-want +got):\n%s", diff)
	}
	assert.Zero(t, c.Errors())
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []string
		errors int
	}{
		{
			name:  "repeat_and_quotes",
			input: "new\nih 'two words' 2\nit x\n",
			want:  []string{"q = []", "q = [two words two words]", "q = [two words two words x]"},
		},
		{
			name:  "truncated_remove",
			input: "new\nit hello\noption bufsize 3\nrh he\n",
			want:  []string{"q = []", "q = [hello]", "bufsize = 3", "Removed he from queue", "q = []"},
		},
		{
			name:   "remove_mismatch",
			input:  "new\nit a\nrh b\n",
			want:   []string{"q = []", "q = [a]", "Removed a from queue", "q = []", `ERROR: rh: removed value "a" does not match expected value "b"`},
			errors: 1,
		},
		{
			name:   "remove_empty",
			input:  "new\nrh\nrhq\nsize\n",
			want:   []string{"q = []", "ERROR: rh: queue is empty", "ERROR: rhq: queue is empty", "Queue size = 0"},
			errors: 2,
		},
		{
			name:   "no_queue",
			input:  "ih a\nrh\nsize\nreverse\nsort\nshow\nfree\n",
			want:   []string{"ERROR: ih: invalid queue", "ERROR: rh: invalid queue", "Queue size = 0", "q = NULL", "q = NULL", "q = NULL", "q = NULL"},
			errors: 2,
		},
		{
			name:  "remove_quiet",
			input: "new\nit a\nit b\nrhq\n",
			want:  []string{"q = []", "q = [a]", "q = [a b]", "Removed element from queue", "q = [b]"},
		},
		{
			name:  "mark_verify",
			input: "new\nit a\nit b\nmark\nreverse\nverify\nreverse\nverify\n",
			want: []string{
				"q = []", "q = [a]", "q = [a b]", "Marked 2 elements",
				"q = [b a]", "ERROR: verify: queue contents differ from mark",
				"q = [a b]", "Queue matches mark",
			},
			errors: 1,
		},
		{
			name:   "fail_option",
			input:  "new\noption fail 100\nit a\noption fail 0\nit b\n",
			want:   []string{"q = []", "fail = 100", "ERROR: it: allocation failed: element: injected allocation failure", "fail = 0", "q = [b]"},
			errors: 1,
		},
		{
			name:   "bufsize_too_large",
			input:  "new\nit a\noption bufsize 9000000000000000000\nrh a\n",
			want:   []string{"q = []", "q = [a]", `ERROR: option: invalid bufsize "9000000000000000000" - expected 0 to 1048576`, "Removed a from queue", "q = []"},
			errors: 1,
		},
		{
			name:  "show_options",
			input: "option\noption fail 25\noption bufsize 8\noption\n",
			want:  []string{"bufsize = 1024", "fail = 0", "fail = 25", "bufsize = 8", "bufsize = 8", "fail = 25"},
		},
		{
			name:   "usage",
			input:  "ih\nbogus\noption fail\noption fail x\n",
			errors: 4,
			want: []string{
				"ERROR: usage: ih str [n]",
				`ERROR: unknown command "bogus" - try help`,
				"ERROR: option: missing value for option fail",
				`ERROR: option: invalid fail setting "x" - expected a percentage between 0 and 100`,
			},
		},
		{
			name:  "quit",
			input: "new\nquit\nit a\n",
			want:  []string{"q = []"},
		},
		{
			name:  "crlf",
			input: "new\r\nit a\rit b\r\n",
			want:  []string{"q = []", "q = [a]", "q = [a b]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := newConsole(t, nil)
			require.NoError(t, c.Run(strings.NewReader(tt.input)))
			if diff := cmp.Diff(tt.want, lines(out.String())); diff != "" {
				t.Errorf("output diff (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.errors, c.Errors(), "Errors()")
			assert.NoError(t, c.Close())
		})
	}
}

func TestSource(t *testing.T) {
	c, out := newConsole(t, map[string]string{
		"fill.cmd":  "it b\nit a\n",
		"outer.cmd": "new\nsource fill.cmd\nsort\n",
		"loop.cmd":  "source loop.cmd\n",
	})

	require.NoError(t, c.Run(strings.NewReader("source outer.cmd\nsource missing.cmd\n")))
	want := []string{"q = []", "q = [b]", "q = [b a]", "q = [a b]", "ERROR: source: file does not exist"}
	if diff := cmp.Diff(want, lines(out.String())); diff != "" {
		t.Errorf("output diff (-want +got):\n%s", diff)
	}

	out.Reset()
	errorsBefore := c.Errors()
	require.NoError(t, c.Run(strings.NewReader("source loop.cmd\n")))
	assert.Greater(t, c.Errors(), errorsBefore, "recursive source reported no error")
	assert.Contains(t, out.String(), "scripts nested deeper than")
}

func TestShowLimit(t *testing.T) {
	c, out := newConsole(t, nil)
	require.NoError(t, c.Run(strings.NewReader("new\nit x 60\n")))

	got := lines(out.String())
	require.Len(t, got, 2)
	assert.True(t, strings.HasSuffix(got[1], " ... (10 more)]"), got[1])
}

func TestVerifyRejectsInvalidMark(t *testing.T) {
	c, out := newConsole(t, nil)
	require.NoError(t, c.Exec("new"))
	c.mark = "not a fingerprint"

	err := c.Exec("verify")
	require.Error(t, err)
	assert.Contains(t, out.String(), "ERROR: verify: invalid mark")
	assert.Equal(t, 1, c.Errors())
}

func TestReplay(t *testing.T) {
	transcript, err := streams.InMemory("session")
	require.NoError(t, err)

	local := plugin.NewLocal(nil)
	defer local.Close()

	var out bytes.Buffer
	c := New(Options{Driver: local, Output: &out, Transcript: transcript})
	require.NoError(t, c.Run(strings.NewReader("new\nit a\nreplay\nit b\nreplay\n")))
	require.NoError(t, c.Close())

	want := []string{
		"q = []", "q = [a]",
		"q = []", "q = [a]",
		"q = [a b]",
		"q = []", "q = [a]", "q = [a b]",
	}
	if diff := cmp.Diff(want, lines(out.String())); diff != "" {
		t.Errorf("output diff (-want +got):\n%s", diff)
	}
	assert.Zero(t, c.Errors())

	require.NoError(t, transcript.Close())
	r, err := transcript.Reader()
	require.NoError(t, err)
	defer r.Close()
	recorded, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "q = []\nq = [a]\nq = [a b]\n", string(recorded), "replayed output was recorded")
}

func TestReplayWithoutTranscript(t *testing.T) {
	c, out := newConsole(t, nil)
	require.Error(t, c.Exec("replay"))
	assert.Equal(t, "ERROR: replay: no transcript available\n", out.String())
}

type leakyDriver struct {
	*plugin.Local
}

func (leakyDriver) Free(plugin.Handle) error {
	return nil
}

func TestCloseReportsLeaks(t *testing.T) {
	local := plugin.NewLocal(nil)
	defer local.Close()

	var out bytes.Buffer
	c := New(Options{Driver: leakyDriver{local}, Output: &out})
	require.NoError(t, c.Run(strings.NewReader("new\nit a\n")))

	err := c.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 blocks are still allocated")
	assert.Equal(t, 1, c.Errors())
}

func TestHelp(t *testing.T) {
	c, out := newConsole(t, nil)
	require.NoError(t, c.Exec("help"))
	assert.Len(t, lines(out.String()), len(commands))
	assert.False(t, errors.Is(c.Exec("quit"), errQuit))
	assert.True(t, c.Quit())
}
