// Package model holds the GORM models of the run journal.
package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// DatabaseModels lists every table of the journal schema, in migration order.
var DatabaseModels = []any{
	&Run{},
	&StateChange{},
	&Battle{},
	&Attack{},
	&Death{},
	&LootDrop{},
	&FeedingReport{},
	&DaySummary{},
}

// Run is one simulation from start to game over. EndTime is set by EndRun.
type Run struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Name      string     `json:"name" gorm:"size:127"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Seed      uint64     `json:"seed"`
	DayLength float64    `json:"dayLengthSeconds"`
	Version   string     `json:"version" gorm:"size:32"`
	Days      int        `json:"days"`
	Final     string     `json:"final" gorm:"size:32"`
	Survived  int        `json:"survived"`
}

func (*Run) TableName() string {
	return "runs"
}

// StateChange is a day cycle transition.
type StateChange struct {
	ID    uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID string    `json:"runId" gorm:"size:36;index:idx_state_changes_run_id"`
	Run   Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time  time.Time `json:"time" gorm:"index:idx_state_changes_time"`
	Day   int       `json:"day"`
	From  string    `json:"from" gorm:"size:32"`
	To    string    `json:"to" gorm:"size:32"`
}

func (*StateChange) TableName() string {
	return "state_changes"
}

// Battle is a battle lifecycle record.
type Battle struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID      string    `json:"runId" gorm:"size:36;index:idx_battles_run_id"`
	Run        Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time       time.Time `json:"time"`
	Day        int       `json:"day"`
	BattleID   uint32    `json:"battleId" gorm:"index:idx_battles_battle_id"`
	Phase      string    `json:"phase" gorm:"size:16"`
	HostileID  uint32    `json:"hostileId"`
	FriendlyID uint32    `json:"friendlyId"`
	Outcome    string    `json:"outcome" gorm:"size:32"`
	Turns      int       `json:"turns"`
}

func (*Battle) TableName() string {
	return "battles"
}

// Attack is one resolved swing.
type Attack struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID      string    `json:"runId" gorm:"size:36;index:idx_attacks_run_id"`
	Run        Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time       time.Time `json:"time"`
	Day        int       `json:"day"`
	BattleID   uint32    `json:"battleId" gorm:"index:idx_attacks_battle_id"`
	AttackerID uint32    `json:"attackerId"`
	DefenderID uint32    `json:"defenderId"`
	Roll       float64   `json:"roll"`
	Hit        bool      `json:"hit"`
	Damage     int       `json:"damage"`
	DefenderHP int       `json:"defenderHp"`
}

func (*Attack) TableName() string {
	return "attacks"
}

// Death is a unit leaving play.
type Death struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    string    `json:"runId" gorm:"size:36;index:idx_deaths_run_id"`
	Run      Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time     time.Time `json:"time"`
	Day      int       `json:"day"`
	UnitID   uint32    `json:"unitId"`
	Name     string    `json:"name" gorm:"size:64"`
	Role     string    `json:"role" gorm:"size:16"`
	Cause    string    `json:"cause" gorm:"size:16"`
	BattleID uint32    `json:"battleId"`
}

func (*Death) TableName() string {
	return "deaths"
}

// LootDrop is an item spawned from a defeated unit. Position is stored as WKB.
type LootDrop struct {
	ID       uint       `json:"id" gorm:"primarykey;autoIncrement"`
	RunID    string     `json:"runId" gorm:"size:36;index:idx_loot_drops_run_id"`
	Run      Run        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time     time.Time  `json:"time"`
	Day      int        `json:"day"`
	BattleID uint32     `json:"battleId"`
	SourceID uint32     `json:"sourceId"`
	Template string     `json:"template" gorm:"size:64"`
	ItemID   uint32     `json:"itemId"`
	Position geom.Point `json:"position" gorm:"type:bytea"`
}

func (*LootDrop) TableName() string {
	return "loot_drops"
}

// FeedingReport is the outcome of a feeding pass. Hungry holds the
// per-unit deficits, FoodRemoved the IDs of emptied food.
type FeedingReport struct {
	ID           uint           `json:"id" gorm:"primarykey;autoIncrement"`
	RunID        string         `json:"runId" gorm:"size:36;index:idx_feeding_reports_run_id"`
	Run          Run            `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time         time.Time      `json:"time"`
	Day          int            `json:"day"`
	AllSatisfied bool           `json:"allSatisfied"`
	Fed          int            `json:"fed"`
	Consumed     int            `json:"consumed"`
	Hungry       datatypes.JSON `json:"hungry"`
	FoodRemoved  datatypes.JSON `json:"foodRemoved"`
}

func (*FeedingReport) TableName() string {
	return "feeding_reports"
}

// DaySummary is the settled outcome of one day.
type DaySummary struct {
	ID         uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RunID      string    `json:"runId" gorm:"size:36;uniqueIndex:idx_day_summaries_run_day"`
	Run        Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Time       time.Time `json:"time"`
	Day        int       `json:"day" gorm:"uniqueIndex:idx_day_summaries_run_day"`
	Friendlies int       `json:"friendlies"`
	Hungry     int       `json:"hungry"`
	Starved    int       `json:"starved"`
	Consumed   int       `json:"consumed"`
	Battles    int       `json:"battles"`
	Population int       `json:"population"`
	Capacity   int       `json:"capacity"`
	Coins      int       `json:"coins"`
}

func (*DaySummary) TableName() string {
	return "day_summaries"
}
