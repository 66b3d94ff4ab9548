//go:build integration

package integration

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/keysweep/internal/cdp"
	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/loop"
	"github.com/thruflo/keysweep/internal/page"
	"github.com/thruflo/keysweep/internal/session"
	"github.com/thruflo/keysweep/internal/supervisor"
	"github.com/thruflo/keysweep/internal/testutil"
	"github.com/thruflo/keysweep/internal/tui"
)

const selector = `input[name="gameId"]`

// syncBuffer is a bytes.Buffer safe for the loop goroutine to write.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func nextResult(t *testing.T, sup *supervisor.Supervisor) loop.Result {
	t.Helper()
	select {
	case res := <-sup.Results():
		return res
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for loop result")
		return loop.Result{}
	}
}

func TestBrowserRun_SubmitsEveryValue(t *testing.T) {
	ctx, cancel := testutil.ContextWithTestDeadline(t, 30*time.Second)
	defer cancel()

	browser := newFakeBrowser(t)

	target, err := cdp.DiscoverPage(ctx, browser.URL(), "game.example")
	require.NoError(t, err)
	client, err := cdp.Dial(ctx, target.WebSocketDebuggerURL)
	require.NoError(t, err)
	defer client.Close()

	var out, errOut syncBuffer
	panel := tui.NewPanel(&out, &errOut)
	machine := control.NewMachine(panel)
	machine.EnableAutoSubmit()
	machine.Resume()

	sup := supervisor.New(supervisor.Options{
		Control: machine,
		Interactor: field.NewInteractor(field.Options{
			Host:     cdp.NewDocument(client),
			Selector: selector,
		}),
		Min:      1,
		Max:      30,
		Interval: -1,
		Sink:     panel,
	})
	defer sup.Close()
	require.NoError(t, sup.Start(ctx))

	res := nextResult(t, sup)
	assert.Equal(t, loop.ExitReasonCompleted, res.Reason)
	assert.Equal(t, 30, res.Attempts)

	values := browser.Values()
	testutil.AssertPermutation(t, 1, 30, values)
	assert.Len(t, browser.Clicks(), 30, "the Join control is clicked each time")
	assert.Empty(t, browser.Submits())

	tail := panel.TailLines()
	require.Len(t, tail, 31)
	assert.True(t, strings.HasSuffix(tail[29], "submitted: yes"))
	assert.Equal(t, "run ended: completed", tail[30])
	assert.Equal(t, control.MessageFinished, panel.State().Notice)
	assert.Contains(t, errOut.String(), "keysweep: "+control.MessageFinished)
	assert.Empty(t, out.String(), "a detached panel does not draw")
}

func TestBrowserRun_FieldDisappears(t *testing.T) {
	ctx, cancel := testutil.ContextWithTestDeadline(t, 30*time.Second)
	defer cancel()

	browser := newFakeBrowser(t)
	browser.RemoveFieldAfter(4)

	target, err := cdp.DiscoverPage(ctx, browser.URL(), "")
	require.NoError(t, err)
	client, err := cdp.Dial(ctx, target.WebSocketDebuggerURL)
	require.NoError(t, err)
	defer client.Close()

	var errOut syncBuffer
	panel := tui.NewPanel(&syncBuffer{}, &errOut)
	machine := control.NewMachine(panel)
	machine.Resume()

	sess := session.New()
	sup := supervisor.New(supervisor.Options{
		Session: sess,
		Control: machine,
		Interactor: field.NewInteractor(field.Options{
			Host:     cdp.NewDocument(client),
			Selector: selector,
		}),
		Min:      100,
		Max:      199,
		Interval: -1,
		Sink:     panel,
	})
	defer sup.Close()
	require.NoError(t, sup.Start(ctx))

	res := nextResult(t, sup)
	assert.Equal(t, loop.ExitReasonFieldMissing, res.Reason)
	assert.ErrorIs(t, res.Error, field.ErrFieldNotFound)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 4, sess.Progress().Cursor())
	assert.Empty(t, browser.Clicks(), "auto-submit was never enabled")
	assert.Contains(t, errOut.String(), "keysweep: "+control.MessageFieldMissing)
}

func TestSession_StopResetResume(t *testing.T) {
	ctx, cancel := testutil.ContextWithTestDeadline(t, 30*time.Second)
	defer cancel()

	pg := page.New(selector, page.WithForm(true))
	var errOut syncBuffer
	panel := tui.NewPanel(&syncBuffer{}, &errOut)
	machine := control.NewMachine(panel)

	sess := session.New()
	sup := supervisor.New(supervisor.Options{
		Session:    sess,
		Control:    machine,
		Interactor: field.NewInteractor(field.Options{Host: pg, Selector: selector}),
		Min:        1,
		Max:        40,
		Interval:   time.Millisecond,
		PausePoll:  time.Millisecond,
		Sink:       panel,
	})
	defer sup.Close()
	require.NoError(t, sup.Start(ctx))

	require.NoError(t, sup.Apply(control.CommandEnableAutoSubmit))
	require.NoError(t, sup.Apply(control.CommandTogglePause))

	testutil.WaitFor(t, 5*time.Second, func() bool { return len(pg.Values()) >= 10 }, "ten attempts")
	require.NoError(t, sup.Apply(control.CommandStop))

	res := nextResult(t, sup)
	assert.Equal(t, loop.ExitReasonUserStop, res.Reason)
	stoppedAt := sess.Progress().Cursor()
	assert.Equal(t, stoppedAt, len(pg.Values()))

	require.NoError(t, sup.Apply(control.CommandReset))
	assert.Equal(t, control.ModePaused, machine.Mode())
	assert.True(t, machine.AutoSubmit(), "reset keeps auto-submit")
	assert.Equal(t, stoppedAt, sess.Progress().Cursor(), "reset keeps the cursor")

	require.NoError(t, sup.Apply(control.CommandTogglePause))
	res = nextResult(t, sup)
	assert.Equal(t, loop.ExitReasonCompleted, res.Reason)
	assert.Equal(t, 40-stoppedAt, res.Attempts)

	var written []int
	for _, v := range pg.Values() {
		written = append(written, atoi(t, v))
	}
	testutil.AssertPermutation(t, 1, 40, written)
	assert.Len(t, pg.Submissions(), 40)

	notices := errOut.String()
	assert.Contains(t, notices, "keysweep: "+control.MessageStopped)
	assert.Contains(t, notices, "keysweep: "+control.MessageFinished)
}
