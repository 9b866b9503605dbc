package shortterm

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agentmem/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func rec(id string, imp model.Importance, ts time.Time) *model.Record {
	return &model.Record{ID: id, Content: "content " + id, Kind: model.KindEpisodic, AgentID: "dev", Importance: imp, Timestamp: ts}
}

func TestAddOverflowKeepsHighImportance(t *testing.T) {
	c := newClock()
	b := New(Options{Size: 5, Now: c.Now})

	for i := 0; i < 5; i++ {
		b.Add(rec(fmt.Sprintf("r%d", i), model.Low, c.Now().Add(time.Duration(i)*time.Minute)))
	}
	assert.Equal(t, 5, b.Len())
	assert.Zero(t, b.Pending())

	pending := b.Add(rec("crit", model.Critical, c.Now()))
	assert.Equal(t, 3, b.Len()) // floor(5*0.7)
	assert.Equal(t, 3, pending)

	ids := map[string]bool{}
	for _, r := range b.Snapshot() {
		ids[r.ID] = true
	}
	assert.True(t, ids["crit"])
	assert.True(t, ids["r4"])
	assert.True(t, ids["r3"])

	taken := b.TakePending()
	require.Len(t, taken, 3)
	assert.Zero(t, b.Pending())
}

func TestBufferBoundHoldsForAnySequence(t *testing.T) {
	c := newClock()
	for _, size := range []int{1, 2, 3, 7, 20} {
		b := New(Options{Size: size, Now: c.Now})
		for i := 0; i < 100; i++ {
			imp := model.Importance(i % 5)
			b.Add(rec(fmt.Sprintf("s%d-%d", size, i), imp, c.Now().Add(time.Duration(i)*time.Second)))
			assert.LessOrEqual(t, b.Len(), size)
		}
	}
}

func TestSizeOneKeepsOne(t *testing.T) {
	b := New(Options{Size: 1})
	now := time.Now()
	b.Add(rec("a", model.Low, now))
	b.Add(rec("b", model.High, now))
	require.Equal(t, 1, b.Len())
	assert.Equal(t, "b", b.Snapshot()[0].ID)
}

func TestOverflowKeepsInsertionOrder(t *testing.T) {
	c := newClock()
	b := New(Options{Size: 4, Now: c.Now})
	// Size 4 keeps 2 on overflow: the two High records.
	b.Add(rec("low1", model.Low, c.Now()))
	b.Add(rec("high1", model.High, c.Now().Add(-time.Hour)))
	b.Add(rec("low2", model.Low, c.Now()))
	b.Add(rec("high2", model.High, c.Now()))
	b.Add(rec("low3", model.Low, c.Now()))
	b.Add(rec("late", model.Trivial, c.Now()))

	var got []string
	for _, r := range b.Snapshot() {
		got = append(got, r.ID)
	}
	assert.Equal(t, []string{"high1", "high2", "late"}, got)
	assert.Equal(t, 3, b.Pending())
}

func TestTakeExpired(t *testing.T) {
	c := newClock()
	b := New(Options{Size: 10, MaxAge: 24 * time.Hour, Now: c.Now})
	b.Add(rec("old", model.Medium, c.Now().Add(-25*time.Hour)))
	b.Add(rec("new", model.Medium, c.Now().Add(-time.Hour)))

	expired := b.TakeExpired()
	require.Len(t, expired, 1)
	assert.Equal(t, "old", expired[0].ID)
	assert.Equal(t, 1, b.Len())
}

func TestRecentOrderAndFilter(t *testing.T) {
	c := newClock()
	b := New(Options{Size: 10, Now: c.Now})
	b.Add(rec("a", model.Low, c.Now().Add(-3*time.Minute)))
	r := rec("b", model.Low, c.Now().Add(-time.Minute))
	r.AgentID = "qa"
	b.Add(r)
	b.Add(rec("c", model.Low, c.Now().Add(-2*time.Minute)))

	got := b.Recent("", 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{got[0].ID, got[1].ID, got[2].ID})

	dev := b.Recent("dev", 1)
	require.Len(t, dev, 1)
	assert.Equal(t, "c", dev[0].ID)

	// Recent returns clones.
	dev[0].Content = "changed"
	assert.Equal(t, "content c", b.Get("c").Content)
}

func TestUpdateDeleteTouch(t *testing.T) {
	c := newClock()
	b := New(Options{Now: c.Now})
	b.Add(rec("a", model.Medium, c.Now()))

	tags := []string{"Auth"}
	got, ok := b.Update("a", model.Patch{Tags: &tags})
	require.True(t, ok)
	assert.Equal(t, []string{"auth"}, got.Tags)

	_, ok = b.Update("missing", model.Patch{})
	assert.False(t, ok)

	b.Touch([]string{"a"}, c.Now())
	assert.Equal(t, 1, b.Get("a").AccessCount)

	b.MarkPromoted("a")
	assert.True(t, b.IsPromoted("a"))
	assert.True(t, b.Delete("a"))
	assert.False(t, b.IsPromoted("a"))
	assert.False(t, b.Delete("a"))
	assert.Nil(t, b.Get("a"))
}

func TestWorkingMemoryTTL(t *testing.T) {
	c := newClock()
	b := New(Options{WorkingTTL: time.Hour, Now: c.Now})
	b.SetWorking("current_task", "auth api")
	b.SetWorking("active_file", "auth.go")

	v, ok := b.GetWorking("current_task")
	require.True(t, ok)
	assert.Equal(t, "auth api", v)

	c.Advance(30 * time.Minute)
	b.SetWorking("active_file", "handler.go") // refreshes expiry

	c.Advance(31 * time.Minute)
	_, ok = b.GetWorking("current_task")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"active_file": "handler.go"}, b.Working())
	assert.Equal(t, []string{"active_file"}, b.WorkingKeys())

	b.DeleteWorking("active_file")
	assert.Empty(t, b.Working())
}
