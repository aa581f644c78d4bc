package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{ TableName() string }
		expected string
	}{
		{"Run", &Run{}, "runs"},
		{"StateChange", &StateChange{}, "state_changes"},
		{"Battle", &Battle{}, "battles"},
		{"Attack", &Attack{}, "attacks"},
		{"Death", &Death{}, "deaths"},
		{"LootDrop", &LootDrop{}, "loot_drops"},
		{"FeedingReport", &FeedingReport{}, "feeding_reports"},
		{"DaySummary", &DaySummary{}, "day_summaries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.model.TableName())
		})
	}
}

func TestDatabaseModelsCoverTables(t *testing.T) {
	assert.Len(t, DatabaseModels, 8)
	for _, m := range DatabaseModels {
		_, ok := m.(interface{ TableName() string })
		assert.True(t, ok, "%T has no TableName", m)
	}
}
