package core

import "fmt"

// DayState is the active phase of the day cycle.
type DayState uint8

const (
	StateRunning DayState = iota
	StateWaitingFeed
	StateFeedingAnimation
	StateFeedingResultAllFull
	StateFeedingResultHungry
	StateStarvingAnimation
	StateWaitingSell
	StateSelling
	StateWaitingNextDay
	StateWaitingEndGame
	StateGameOver
)

// AllDayStates lists every state in declaration order.
var AllDayStates = []DayState{
	StateRunning,
	StateWaitingFeed,
	StateFeedingAnimation,
	StateFeedingResultAllFull,
	StateFeedingResultHungry,
	StateStarvingAnimation,
	StateWaitingSell,
	StateSelling,
	StateWaitingNextDay,
	StateWaitingEndGame,
	StateGameOver,
}

var dayStateNames = [...]string{
	StateRunning:              "Running",
	StateWaitingFeed:          "WaitingFeed",
	StateFeedingAnimation:     "FeedingAnimation",
	StateFeedingResultAllFull: "FeedingResultAllFull",
	StateFeedingResultHungry:  "FeedingResultHungry",
	StateStarvingAnimation:    "StarvingAnimation",
	StateWaitingSell:          "WaitingSell",
	StateSelling:              "Selling",
	StateWaitingNextDay:       "WaitingNextDay",
	StateWaitingEndGame:       "WaitingEndGame",
	StateGameOver:             "GameOver",
}

func (s DayState) String() string {
	if int(s) < len(dayStateNames) {
		return dayStateNames[s]
	}
	return fmt.Sprintf("DayState(%d)", uint8(s))
}

// Valid reports whether s is one of the defined states.
func (s DayState) Valid() bool {
	return int(s) < len(dayStateNames)
}

// MarshalText encodes the state by name so journals stay readable.
func (s DayState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid day state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *DayState) UnmarshalText(b []byte) error {
	for i, name := range dayStateNames {
		if name == string(b) {
			*s = DayState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown day state %q", string(b))
}
