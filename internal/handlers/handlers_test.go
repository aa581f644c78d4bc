package handlers

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/dispatcher"
	"github.com/moonfall/colonysim/internal/logging"
	"github.com/moonfall/colonysim/internal/parser"
	"github.com/moonfall/colonysim/internal/sim"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// mockSim records submitted commands.
type mockSim struct {
	mu   sync.Mutex
	cmds []sim.Command
	st   sim.Status
}

func (m *mockSim) Submit(c sim.Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cmds = append(m.cmds, c)
}

func (m *mockSim) Status() sim.Status { return m.st }

func (m *mockSim) submitted() []sim.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sim.Command(nil), m.cmds...)
}

func newTestService(t *testing.T) (*Service, *mockSim, *dispatcher.Dispatcher) {
	t.Helper()
	m := &mockSim{st: sim.Status{Day: 4, State: "Running"}}
	svc := NewService(Dependencies{Sim: m, Logger: logging.Discard(), Version: "1.2.3"})
	d, err := dispatcher.New(nopLogger{})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	svc.Register(d)
	return svc, m, d
}

func TestRegister_CoversParserCommands(t *testing.T) {
	_, _, d := newTestService(t)
	for _, cmd := range parser.Commands() {
		assert.True(t, d.HasHandler(cmd), "missing handler for %s", cmd)
	}
}

func TestSimpleCommands(t *testing.T) {
	tests := []struct {
		command string
		action  sim.Action
	}{
		{":FEED:", sim.ActFeed},
		{":CONFIRM:FED:", sim.ActConfirmFed},
		{":CONFIRM:HUNGRY:", sim.ActConfirmHungry},
		{":SELL:", sim.ActSell},
		{":NEXT:DAY:", sim.ActNextDay},
		{":END:GAME:", sim.ActEndGame},
		{":PAUSE:", sim.ActPause},
		{":SPEED:", sim.ActSpeed},
		{":AUTOPILOT:", sim.ActAutopilot},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			_, m, d := newTestService(t)
			res, err := d.Dispatch(dispatcher.Event{Command: tt.command})
			require.NoError(t, err)
			assert.Equal(t, tt.action.String(), res)
			assert.Equal(t, []sim.Command{{Action: tt.action}}, m.submitted())
		})
	}
}

func TestSimpleCommands_RejectArgs(t *testing.T) {
	_, m, d := newTestService(t)
	_, err := d.Dispatch(dispatcher.Event{Command: ":FEED:", Args: []string{"1"}})
	assert.ErrorIs(t, err, ErrArgs)
	assert.Empty(t, m.submitted())
}

func TestHandleEngage(t *testing.T) {
	_, m, d := newTestService(t)
	_, err := d.Dispatch(dispatcher.Event{Command: ":ENGAGE:", Args: []string{"1", "5.0"}})
	require.NoError(t, err)
	assert.Equal(t, []sim.Command{{Action: sim.ActEngage, Unit: 1, Target: 5}}, m.submitted())
}

func TestHandleEngage_BadArgs(t *testing.T) {
	_, m, d := newTestService(t)

	_, err := d.Dispatch(dispatcher.Event{Command: ":ENGAGE:", Args: []string{"1"}})
	assert.ErrorIs(t, err, ErrArgs)

	_, err = d.Dispatch(dispatcher.Event{Command: ":ENGAGE:", Args: []string{"1", "wolf"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")

	assert.Empty(t, m.submitted())
}

func TestHandleDisengageAndSellCard(t *testing.T) {
	_, m, d := newTestService(t)
	_, err := d.Dispatch(dispatcher.Event{Command: ":DISENGAGE:", Args: []string{"3"}})
	require.NoError(t, err)
	_, err = d.Dispatch(dispatcher.Event{Command: ":SELL:CARD:", Args: []string{"9"}})
	require.NoError(t, err)

	assert.Equal(t, []sim.Command{
		{Action: sim.ActDisengage, Unit: 3},
		{Action: sim.ActSellCard, Unit: 9},
	}, m.submitted())

	_, err = d.Dispatch(dispatcher.Event{Command: ":SELL:CARD:"})
	assert.ErrorIs(t, err, ErrArgs)
}

func TestHandleStatus(t *testing.T) {
	_, _, d := newTestService(t)
	res, err := d.Dispatch(dispatcher.Event{Command: ":STATUS:"})
	require.NoError(t, err)
	st, ok := res.(sim.Status)
	require.True(t, ok)
	assert.Equal(t, 4, st.Day)
}

func TestHandleHelpAndVersion(t *testing.T) {
	_, _, d := newTestService(t)
	res, err := d.Dispatch(dispatcher.Event{Command: ":HELP:"})
	require.NoError(t, err)
	assert.Contains(t, res, ":ENGAGE:")

	res, err = d.Dispatch(dispatcher.Event{Command: ":VERSION:"})
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", res)
}

func TestHandleHelp_Unregistered(t *testing.T) {
	svc := NewService(Dependencies{Sim: &mockSim{}})
	res, err := svc.HandleHelp(dispatcher.Event{})
	require.NoError(t, err)
	assert.Equal(t, parser.Commands(), res)
}

func TestHandleQuit(t *testing.T) {
	quit := 0
	svc := NewService(Dependencies{Sim: &mockSim{}, OnQuit: func() { quit++ }})
	_, err := svc.HandleQuit(dispatcher.Event{})
	require.NoError(t, err)
	assert.Equal(t, 1, quit)

	_, err = NewService(Dependencies{Sim: &mockSim{}}).HandleQuit(dispatcher.Event{})
	assert.NoError(t, err)
}

func TestUnknownCommandSuggests(t *testing.T) {
	_, _, d := newTestService(t)
	_, err := d.Dispatch(dispatcher.Event{Command: ":ENGAG:"})
	require.ErrorIs(t, err, dispatcher.ErrUnknownCommand)
	assert.Contains(t, err.Error(), ":ENGAGE:")
}

func TestParsedLinesReachSim(t *testing.T) {
	_, m, d := newTestService(t)
	p := parser.NewParser(logging.Discard())
	for _, line := range []string{"feed", "engage 1 2", "sell 7"} {
		e, err := p.ParseLine(line)
		require.NoError(t, err)
		_, err = d.Dispatch(e)
		require.NoError(t, err)
	}
	assert.Equal(t, []sim.Command{
		{Action: sim.ActFeed},
		{Action: sim.ActEngage, Unit: 1, Target: 2},
		{Action: sim.ActSellCard, Unit: 7},
	}, m.submitted())
}
