// Package convert maps journal records from pkg/core to GORM models.
package convert

import (
	"encoding/json"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/moonfall/colonysim/internal/model"
	"github.com/moonfall/colonysim/pkg/core"
)

// positionToPoint converts a board position to a 2D geom.Point. NaN and
// infinite coordinates are rejected by geom.
func positionToPoint(p core.Position) (geom.Point, error) {
	pt, err := geom.XY{X: p.X, Y: p.Y}.AsPoint()
	if err != nil {
		return geom.Point{}, fmt.Errorf("position %v: %w", p, err)
	}
	return pt, nil
}

// toJSON marshals v, falling back to "[]" for nil or empty slices.
func toJSON[T any](v []T) datatypes.JSON {
	if len(v) == 0 {
		return datatypes.JSON("[]")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// CoreToRun converts a run identity. The summary columns stay zero until EndRun.
func CoreToRun(r core.Run) model.Run {
	return model.Run{
		ID:        r.ID,
		Name:      r.Name,
		StartTime: r.StartTime,
		Seed:      r.Seed,
		DayLength: r.DayLength.Seconds(),
		Version:   r.Version,
	}
}

// ApplySummary copies the closing summary onto a run row.
func ApplySummary(r *model.Run, s core.RunSummary) {
	end := s.EndTime
	r.EndTime = &end
	r.Days = s.Days
	r.Final = s.Final.String()
	r.Survived = s.Survived
}

func CoreToStateChange(e core.StateChange) model.StateChange {
	return model.StateChange{
		Time: e.Time,
		Day:  e.Day,
		From: e.From.String(),
		To:   e.To.String(),
	}
}

func CoreToBattle(e core.BattleRecord) model.Battle {
	return model.Battle{
		Time:       e.Time,
		Day:        e.Day,
		BattleID:   uint32(e.BattleID),
		Phase:      string(e.Phase),
		HostileID:  uint32(e.HostileID),
		FriendlyID: uint32(e.FriendlyID),
		Outcome:    string(e.Outcome),
		Turns:      e.Turns,
	}
}

func CoreToAttack(e core.Attack) model.Attack {
	return model.Attack{
		Time:       e.Time,
		Day:        e.Day,
		BattleID:   uint32(e.BattleID),
		AttackerID: uint32(e.AttackerID),
		DefenderID: uint32(e.DefenderID),
		Roll:       e.Roll,
		Hit:        e.Hit,
		Damage:     e.Damage,
		DefenderHP: e.DefenderHP,
	}
}

func CoreToDeath(e core.Death) model.Death {
	return model.Death{
		Time:     e.Time,
		Day:      e.Day,
		UnitID:   uint32(e.UnitID),
		Name:     e.Name,
		Role:     e.Role,
		Cause:    string(e.Cause),
		BattleID: uint32(e.BattleID),
	}
}

func CoreToLootDrop(e core.LootDrop) (model.LootDrop, error) {
	pos, err := positionToPoint(e.Position)
	if err != nil {
		return model.LootDrop{}, fmt.Errorf("loot drop %d: %w", e.ItemID, err)
	}
	return model.LootDrop{
		Time:     e.Time,
		Day:      e.Day,
		BattleID: uint32(e.BattleID),
		SourceID: uint32(e.SourceID),
		Template: e.Template,
		ItemID:   uint32(e.ItemID),
		Position: pos,
	}, nil
}

func CoreToFeedingReport(e core.FeedingReport) model.FeedingReport {
	return model.FeedingReport{
		Time:         e.Time,
		Day:          e.Day,
		AllSatisfied: e.AllSatisfied,
		Fed:          e.Fed,
		Consumed:     e.Consumed,
		Hungry:       toJSON(e.Hungry),
		FoodRemoved:  toJSON(e.FoodRemoved),
	}
}

func CoreToDaySummary(e core.DaySummary) model.DaySummary {
	return model.DaySummary{
		Time:       e.Time,
		Day:        e.Day,
		Friendlies: e.Friendlies,
		Hungry:     e.Hungry,
		Starved:    e.Starved,
		Consumed:   e.Consumed,
		Battles:    e.Battles,
		Population: e.Population,
		Capacity:   e.Capacity,
		Coins:      e.Coins,
	}
}
