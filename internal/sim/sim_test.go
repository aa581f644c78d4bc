package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonfall/colonysim/internal/catalog"
	"github.com/moonfall/colonysim/internal/chase"
	"github.com/moonfall/colonysim/internal/combat"
	"github.com/moonfall/colonysim/internal/daycycle"
	"github.com/moonfall/colonysim/internal/session"
	"github.com/moonfall/colonysim/pkg/core"
)

const testCatalog = `
units:
  villager: { name: Villager, role: friendly, hp: 10, attack: 5, hit_chance: 100, hunger: 2 }
  wolf: { name: Wolf, role: hostile, hp: 10, attack: 5, hit_chance: 100, value: 1, loot: wolf }
  rabbit: { name: Rabbit, role: passive, hp: 2, attack: 0, hit_chance: 0, value: 1, loot: rabbit }
food:
  apple: { name: Apple, saturation: 3, value: 1 }
items:
  hide: { name: Hide, value: 2 }
loot:
  wolf: { min: 1, max: 1, entries: [ { template: hide, weight: 1 } ] }
  rabbit: { min: 1, max: 1, entries: [ { template: apple, weight: 1 } ] }
board:
  - { template: villager, x: 0, y: 0 }
  - { template: villager, x: 1, y: 0 }
  - { template: apple, x: 0, y: 2 }
  - { template: apple, x: 1, y: 2 }
  - { template: wolf, x: 10, y: 0 }
waves:
  - { day: 2, template: rabbit, x: 5, y: 5 }
`

// IDs assigned by the board above.
const (
	villager1 core.ID = 1
	villager2 core.ID = 2
	wolf      core.ID = 5
)

type journal struct {
	events []core.Event
}

func (j *journal) Publish(e core.Event) { j.events = append(j.events, e) }

func (j *journal) battles() []core.BattleRecord {
	var out []core.BattleRecord
	for _, e := range j.events {
		if b, ok := e.(core.BattleRecord); ok {
			out = append(out, b)
		}
	}
	return out
}

func (j *journal) count(kind string) int {
	n := 0
	for _, e := range j.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

func testConfig() Config {
	return Config{
		Day:    daycycle.Config{DayLength: time.Second, StartDay: 1, RecoveryHP: 1},
		Combat: combat.Config{AttackInterval: 100 * time.Millisecond, SettleDelay: 100 * time.Millisecond},
		Chase:  chase.Config{Speed: 1, EngageRadius: 0.5, HopInterval: 100 * time.Millisecond},
		Speeds: []float64{1, 2},

		BaseCapacity: 10,
		Seed:         7,
	}
}

func newSim(t *testing.T, cfg Config, opts ...Option) (*Simulation, *journal) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	j := &journal{}
	s, err := New(cfg, cat, append([]Option{WithPublisher(j)}, opts...)...)
	require.NoError(t, err)
	return s, j
}

func tickFor(s *Simulation, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		s.Tick(step)
	}
}

func command(s *Simulation, a Action) {
	s.Submit(Command{Action: a})
	s.Tick(time.Millisecond)
}

func TestNew_PopulatesBoard(t *testing.T) {
	s, _ := newSim(t, testConfig())
	st := s.Status()

	assert.Equal(t, 1, st.Day)
	assert.Equal(t, core.StateRunning.String(), st.State)
	assert.Equal(t, 2, st.Friendlies)
	assert.Equal(t, 5, st.Population)
	assert.Equal(t, 10, st.Capacity)
	assert.Len(t, st.Units, 3)
	assert.Len(t, st.Food, 2)
	assert.False(t, st.Paused)
	assert.Equal(t, 1.0, st.Speed)
}

func TestTick_FullDay(t *testing.T) {
	s, j := newSim(t, testConfig())

	tickFor(s, time.Second, 100*time.Millisecond)
	assert.Equal(t, core.StateWaitingFeed.String(), s.Status().State)
	assert.Equal(t, 1.0, s.Status().Progress)
	assert.True(t, s.Status().Paused)

	command(s, ActFeed)
	assert.Equal(t, core.StateFeedingResultAllFull.String(), s.Status().State)

	command(s, ActConfirmFed)
	st := s.Status()
	assert.Equal(t, core.StateWaitingNextDay.String(), st.State)
	assert.Equal(t, 4, st.Population, "first apple is eaten up")

	command(s, ActNextDay)
	st = s.Status()
	assert.Equal(t, 2, st.Day)
	assert.Equal(t, core.StateRunning.String(), st.State)
	assert.Equal(t, 5, st.Population, "day two wave spawned")

	assert.Equal(t, 1, j.count(core.KindFeeding))
	assert.Equal(t, 1, j.count(core.KindDaySummary))
	assert.Equal(t, 5, j.count(core.KindStateChange))
}

func TestCommands_IgnoredInWrongState(t *testing.T) {
	s, _ := newSim(t, testConfig())
	for _, a := range []Action{ActFeed, ActConfirmFed, ActConfirmHungry, ActSell, ActNextDay, ActEndGame} {
		command(s, a)
		assert.Equal(t, core.StateRunning.String(), s.Status().State, a.String())
	}
	assert.Zero(t, s.Pending())
}

func TestCommands_PauseAndSpeed(t *testing.T) {
	s, _ := newSim(t, testConfig())
	tickFor(s, 200*time.Millisecond, 100*time.Millisecond)

	command(s, ActPause)
	progress := s.Status().Progress
	assert.True(t, s.Status().Paused)
	tickFor(s, 500*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, progress, s.Status().Progress)

	command(s, ActSpeed)
	assert.False(t, s.Status().Paused, "fast forward releases the pause")
	command(s, ActSpeed)
	assert.Equal(t, 2.0, s.Status().Speed)
}

func TestEngage_BattleToLoot(t *testing.T) {
	cfg := testConfig()
	cfg.Day.DayLength = 10 * time.Second
	s, j := newSim(t, cfg)

	s.Submit(Command{Action: ActEngage, Unit: villager1, Target: wolf})
	s.Tick(time.Millisecond)
	assert.Equal(t, 1, s.Status().ActiveBattles)

	tickFor(s, time.Second, 50*time.Millisecond)

	st := s.Status()
	assert.Zero(t, st.ActiveBattles)
	assert.Equal(t, 1, st.BattlesStarted)
	require.Len(t, st.Items, 1)
	assert.Equal(t, "Hide", st.Items[0].Name)
	for _, u := range st.Units {
		assert.NotEqual(t, wolf, u.ID)
		if u.ID == villager1 {
			assert.Equal(t, 5, u.HP)
		}
	}

	battles := j.battles()
	require.Len(t, battles, 2)
	assert.Equal(t, core.BattleStarted, battles[0].Phase)
	assert.Equal(t, core.OutcomeHostileDefeated, battles[1].Outcome)
	assert.Equal(t, 3, j.count(core.KindAttack))
	assert.Equal(t, 1, j.count(core.KindLoot))
}

func TestEngage_IgnoredOutsideFreePlay(t *testing.T) {
	s, _ := newSim(t, testConfig())
	tickFor(s, time.Second, 100*time.Millisecond)

	s.Submit(Command{Action: ActEngage, Unit: villager1, Target: wolf})
	s.Tick(time.Millisecond)
	assert.Zero(t, s.Status().BattlesStarted)
}

func TestSellCard_DisengagesBattle(t *testing.T) {
	s, j := newSim(t, testConfig())
	s.Submit(Command{Action: ActEngage, Unit: villager1, Target: wolf})
	s.Tick(time.Millisecond)

	s.Submit(Command{Action: ActSellCard, Unit: wolf})
	s.Tick(time.Millisecond)

	st := s.Status()
	assert.Zero(t, st.ActiveBattles)
	assert.Equal(t, 1, st.Coins)
	battles := j.battles()
	require.NotEmpty(t, battles)
	assert.Equal(t, core.OutcomeDisengaged, battles[len(battles)-1].Outcome)
}

func TestDisengage(t *testing.T) {
	s, j := newSim(t, testConfig())
	s.Submit(Command{Action: ActEngage, Unit: villager1, Target: wolf})
	s.Submit(Command{Action: ActDisengage, Unit: villager1})
	s.Tick(time.Millisecond)

	assert.Zero(t, s.Status().ActiveBattles)
	battles := j.battles()
	require.Len(t, battles, 2)
	assert.Equal(t, core.OutcomeAbandoned, battles[1].Outcome)
}

func TestGameOver_EndsOpenBattles(t *testing.T) {
	s, j := newSim(t, testConfig())
	tickFor(s, 900*time.Millisecond, 100*time.Millisecond)
	s.Submit(Command{Action: ActEngage, Unit: villager1, Target: wolf})
	s.Tick(time.Millisecond)
	require.Equal(t, 1, s.Status().ActiveBattles)

	s.Tick(100 * time.Millisecond)
	require.Equal(t, core.StateWaitingFeed.String(), s.Status().State)
	for _, apple := range []core.ID{3, 4} {
		s.Submit(Command{Action: ActSellCard, Unit: apple})
	}
	command(s, ActFeed)
	require.Equal(t, core.StateFeedingResultHungry.String(), s.Status().State)
	command(s, ActConfirmHungry)
	for i := 0; i < 100 && s.Status().State != core.StateGameOver.String(); i++ {
		s.Tick(10 * time.Millisecond)
	}

	st := s.Status()
	require.Equal(t, core.StateGameOver.String(), st.State)
	assert.Zero(t, st.ActiveBattles)
	battles := j.battles()
	require.Len(t, battles, 2)
	assert.Equal(t, core.BattleEnded, battles[1].Phase)
	assert.Equal(t, core.OutcomeGameOver, battles[1].Outcome)
}

func TestSelling_OverCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.BaseCapacity = 3
	s, _ := newSim(t, cfg)

	tickFor(s, time.Second, 100*time.Millisecond)
	command(s, ActFeed)
	command(s, ActConfirmFed)
	assert.Equal(t, core.StateWaitingSell.String(), s.Status().State)

	command(s, ActSell)
	assert.Equal(t, core.StateSelling.String(), s.Status().State)

	s.Submit(Command{Action: ActSellCard, Unit: wolf})
	s.Tick(time.Millisecond)
	st := s.Status()
	assert.Equal(t, core.StateWaitingNextDay.String(), st.State)
	assert.Equal(t, 3, st.Population)
	assert.Equal(t, 1, st.Coins)
}

func TestSellCard_UnknownIgnored(t *testing.T) {
	s, _ := newSim(t, testConfig())
	s.Submit(Command{Action: ActSellCard, Unit: 999})
	s.Tick(time.Millisecond)
	assert.Zero(t, s.Status().Coins)
}

func TestAutopilot_StopsAtMaxDays(t *testing.T) {
	cfg := testConfig()
	cfg.Day.DayLength = 200 * time.Millisecond
	cfg.Autopilot = true
	cfg.MaxDays = 2
	s, j := newSim(t, cfg)

	for i := 0; i < 1000 && !s.Done(); i++ {
		s.Tick(50 * time.Millisecond)
	}

	require.True(t, s.Done())
	st := s.Status()
	assert.Equal(t, 2, st.Day)
	assert.Equal(t, core.StateWaitingNextDay.String(), st.State)
	assert.True(t, st.Autopilot)
	assert.Equal(t, 2, j.count(core.KindDaySummary))
	assert.Positive(t, s.Survivors())
}

func TestAutopilot_HuntsWithNearestVillager(t *testing.T) {
	cfg := testConfig()
	cfg.Day.DayLength = 200 * time.Millisecond
	cfg.Autopilot = true
	s, j := newSim(t, cfg)

	for i := 0; i < 1000 && len(j.battles()) == 0; i++ {
		s.Tick(50 * time.Millisecond)
	}

	battles := j.battles()
	require.NotEmpty(t, battles)
	assert.Equal(t, 2, battles[0].Day, "the rabbit arrives on day two")
	assert.Equal(t, core.BattleStarted, battles[0].Phase)
	assert.Equal(t, villager2, battles[0].FriendlyID, "villager at (1,0) is closer to (5,5)")
}

func TestAutopilot_Toggle(t *testing.T) {
	s, _ := newSim(t, testConfig())
	command(s, ActAutopilot)
	assert.True(t, s.Status().Autopilot)
	command(s, ActAutopilot)
	assert.False(t, s.Status().Autopilot)
}

func TestSession_TracksDay(t *testing.T) {
	sess := session.NewContext("test", 7, time.Second, "dev")
	s, _ := newSim(t, testConfig(), WithSession(sess))

	day, state := sess.Day()
	assert.Equal(t, 1, day)
	assert.Equal(t, core.StateRunning, state)

	tickFor(s, time.Second, 100*time.Millisecond)
	_, state = sess.Day()
	assert.Equal(t, core.StateWaitingFeed, state)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, _ := newSim(t, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, 200)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, s.Status().Tick)
}

func TestRun_ReturnsWhenDone(t *testing.T) {
	cfg := testConfig()
	cfg.Day.DayLength = 20 * time.Millisecond
	cfg.Autopilot = true
	cfg.MaxDays = 1
	s, _ := newSim(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Run(ctx, 500))
	assert.True(t, s.Done())
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "engage", ActEngage.String())
	assert.Equal(t, "action(200)", Action(200).String())
}
