package core

import "time"

// Event kinds, shared by the journal backends and the streaming protocol.
const (
	KindStateChange = "state_change"
	KindBattle      = "battle"
	KindAttack      = "attack"
	KindDeath       = "death"
	KindLoot        = "loot"
	KindFeeding     = "feeding"
	KindDaySummary  = "day_summary"
)

// Event is implemented by every journal record.
type Event interface {
	Kind() string
}

// Publisher receives journal records as the simulation produces them.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(e Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})

// StateChange is emitted on every day cycle transition.
type StateChange struct {
	Time time.Time `json:"time"`
	Day  int       `json:"day"`
	From DayState  `json:"from"`
	To   DayState  `json:"to"`
}

func (StateChange) Kind() string { return KindStateChange }

// BattlePhase marks where in its lifecycle a battle record was taken.
type BattlePhase string

const (
	BattleStarted BattlePhase = "started"
	BattleJoined  BattlePhase = "joined"
	BattleEnded   BattlePhase = "ended"
)

// BattleOutcome says how an ended battle finished.
type BattleOutcome string

const (
	OutcomeNone            BattleOutcome = ""
	OutcomeHostileDefeated BattleOutcome = "hostile_defeated"
	OutcomeDisengaged      BattleOutcome = "disengaged"
	OutcomeAbandoned       BattleOutcome = "abandoned"
	OutcomeGameOver        BattleOutcome = "game_over"
)

// BattleRecord tracks a battle instance starting, gaining a participant or ending.
type BattleRecord struct {
	Time       time.Time     `json:"time"`
	Day        int           `json:"day"`
	BattleID   ID            `json:"battleId"`
	Phase      BattlePhase   `json:"phase"`
	HostileID  ID            `json:"hostileId"`
	FriendlyID ID            `json:"friendlyId,omitempty"`
	Outcome    BattleOutcome `json:"outcome,omitempty"`
	Turns      int           `json:"turns"`
}

func (BattleRecord) Kind() string { return KindBattle }

// Attack is one resolved swing.
type Attack struct {
	Time       time.Time `json:"time"`
	Day        int       `json:"day"`
	BattleID   ID        `json:"battleId"`
	AttackerID ID        `json:"attackerId"`
	DefenderID ID        `json:"defenderId"`
	Roll       float64   `json:"roll"`
	Hit        bool      `json:"hit"`
	Damage     int       `json:"damage"`
	DefenderHP int       `json:"defenderHp"`
}

func (Attack) Kind() string { return KindAttack }

// DeathCause explains why a unit left play.
type DeathCause string

const (
	CauseCombat     DeathCause = "combat"
	CauseStarvation DeathCause = "starvation"
)

// Death records a unit reaching zero hit points or starving.
type Death struct {
	Time     time.Time  `json:"time"`
	Day      int        `json:"day"`
	UnitID   ID         `json:"unitId"`
	Name     string     `json:"name"`
	Role     string     `json:"role"`
	Cause    DeathCause `json:"cause"`
	BattleID ID         `json:"battleId,omitempty"`
}

func (Death) Kind() string { return KindDeath }

// LootDrop records an item spawned from a defeated unit.
type LootDrop struct {
	Time     time.Time `json:"time"`
	Day      int       `json:"day"`
	BattleID ID        `json:"battleId"`
	SourceID ID        `json:"sourceId"`
	Template string    `json:"template"`
	ItemID   ID        `json:"itemId"`
	Position Position  `json:"position"`
}

func (LootDrop) Kind() string { return KindLoot }

// HungryUnit is a unit left with a deficit after feeding.
type HungryUnit struct {
	UnitID  ID     `json:"unitId"`
	Name    string `json:"name"`
	Deficit int    `json:"deficit"`
}

// FeedingReport is the outcome of one feeding pass.
type FeedingReport struct {
	Time         time.Time    `json:"time"`
	Day          int          `json:"day"`
	AllSatisfied bool         `json:"allSatisfied"`
	Fed          int          `json:"fed"`
	Hungry       []HungryUnit `json:"hungry"`
	Consumed     int          `json:"consumed"`
	FoodRemoved  []ID         `json:"foodRemoved"`
}

func (FeedingReport) Kind() string { return KindFeeding }

// DaySummary is written once per day when the feeding outcome is settled.
type DaySummary struct {
	Time       time.Time `json:"time"`
	Day        int       `json:"day"`
	Friendlies int       `json:"friendlies"`
	Hungry     int       `json:"hungry"`
	Starved    int       `json:"starved"`
	Consumed   int       `json:"consumed"`
	Battles    int       `json:"battles"`
	Population int       `json:"population"`
	Capacity   int       `json:"capacity"`
	Coins      int       `json:"coins"`
}

func (DaySummary) Kind() string { return KindDaySummary }
