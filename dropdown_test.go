package csvstory_test

import (
	"testing"

	"github.com/fwojciec/csvstory"
	"github.com/stretchr/testify/assert"
)

func TestSyncOptions(t *testing.T) {
	t.Parallel()

	t.Run("empty list yields disabled placeholder", func(t *testing.T) {
		t.Parallel()

		sel := csvstory.Select{Name: csvstory.SelectGroup, Value: "carrera"}
		csvstory.SyncOptions(&sel, nil, "carrera")

		assert.Equal(t, []csvstory.Option{{Value: "", Label: "N/A", Disabled: true}}, sel.Options)
		assert.Empty(t, sel.Value)
	})

	t.Run("keeps previous value when offered", func(t *testing.T) {
		t.Parallel()

		sel := csvstory.Select{Name: csvstory.SelectGroup}
		csvstory.SyncOptions(&sel, []string{"a", "b", "c"}, "b")

		assert.Equal(t, []string{"a", "b", "c"}, sel.Values())
		assert.Equal(t, "b", sel.Value)
	})

	t.Run("falls back to first option", func(t *testing.T) {
		t.Parallel()

		sel := csvstory.Select{Name: csvstory.SelectGroup}
		csvstory.SyncOptions(&sel, []string{"a", "b"}, "zzz")

		assert.Equal(t, "a", sel.Value)
	})

	t.Run("metric control always offers the sentinel", func(t *testing.T) {
		t.Parallel()

		options := []string{"nota", "asistencia"}
		sel := csvstory.Select{Name: csvstory.SelectMetric}
		csvstory.SyncOptions(&sel, options, csvstory.SentinelMetric)

		assert.Equal(t, []string{csvstory.SentinelMetric, "nota", "asistencia"}, sel.Values())
		assert.Equal(t, csvstory.SentinelMetric, sel.Value)
		assert.Equal(t, []string{"nota", "asistencia"}, options, "input slice is not modified")
	})

	t.Run("sentinel is not duplicated", func(t *testing.T) {
		t.Parallel()

		sel := csvstory.Select{Name: csvstory.SelectMetric}
		csvstory.SyncOptions(&sel, []string{"nota", csvstory.SentinelMetric}, "nota")

		assert.Equal(t, []string{"nota", csvstory.SentinelMetric}, sel.Values())
		assert.Equal(t, "nota", sel.Value)
	})
}

func TestSelect_ChooseAndCycle(t *testing.T) {
	t.Parallel()

	sel := csvstory.Select{Name: csvstory.SelectGroup}
	csvstory.SyncOptions(&sel, []string{"a", "b", "c"}, "")

	assert.True(t, sel.Choose("c"))
	assert.False(t, sel.Choose("zzz"))
	assert.Equal(t, "c", sel.Value)

	assert.Equal(t, "a", sel.Cycle(1), "wraps forward")
	assert.Equal(t, "c", sel.Cycle(-1), "wraps backward")

	placeholder := csvstory.Select{}
	csvstory.SyncOptions(&placeholder, nil, "")
	assert.False(t, placeholder.Choose(""), "disabled options cannot be chosen")
	assert.Empty(t, placeholder.Cycle(1))
}
