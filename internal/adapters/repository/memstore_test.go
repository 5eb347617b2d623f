package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/unirank/internal/domain/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func rankedRecords(ids ...string) []model.RankingRecord {
	out := make([]model.RankingRecord, len(ids))
	for i, id := range ids {
		out[i] = model.RankingRecord{Name: "s" + id, ExternalID: id, Department: "CS", GPA: 4 - float64(i)/10, Rank: i + 1}
	}
	return out
}

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		store := NewMemStore(ctx, WithClock(clock.Now))
		Reset(func() { _ = store.Close() })

		So(store.Count(ctx), ShouldEqual, 0)

		Convey("When a session is created", func() {
			sess, err := store.Create(ctx)
			So(err, ShouldBeNil)

			Convey("Then it should have a uuid and be retrievable", func() {
				_, perr := uuid.Parse(sess.ID)
				So(perr, ShouldBeNil)
				So(sess.CreatedAt, ShouldEqual, clock.Now())

				got, err := store.Get(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, sess.ID)
				So(got.Records, ShouldBeEmpty)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And records are saved", func() {
				sess.Records = rankedRecords("a", "b", "a", "c")
				clock.Advance(time.Minute)
				So(store.Save(ctx, sess), ShouldBeNil)

				Convey("Then TopN should return the leading records and the total", func() {
					top, total, err := store.TopN(ctx, sess.ID, 2)
					So(err, ShouldBeNil)
					So(total, ShouldEqual, 4)
					So(top, ShouldHaveLength, 2)
					So(top[1].ExternalID, ShouldEqual, "b")
				})

				Convey("Then a limit beyond the total should be clamped", func() {
					top, _, err := store.TopN(ctx, sess.ID, 50)
					So(err, ShouldBeNil)
					So(top, ShouldHaveLength, 4)
				})

				Convey("Then a non-positive limit should be rejected", func() {
					_, _, err := store.TopN(ctx, sess.ID, 0)
					So(err, ShouldEqual, ErrInvalidLimit)
				})

				Convey("Then Lookup should return every record with the id", func() {
					recs, err := store.Lookup(ctx, sess.ID, "a")
					So(err, ShouldBeNil)
					So(recs, ShouldHaveLength, 2)
					So(recs[0].Rank, ShouldEqual, 1)
					So(recs[1].Rank, ShouldEqual, 3)

					none, err := store.Lookup(ctx, sess.ID, "zzz")
					So(err, ShouldBeNil)
					So(none, ShouldBeEmpty)
				})

				Convey("Then the update time should follow the clock", func() {
					got, _ := store.Get(ctx, sess.ID)
					So(got.UpdatedAt, ShouldEqual, clock.Now())
					So(store.RecordCount(ctx), ShouldEqual, 4)
				})

				Convey("Then mutating a returned copy should not change the store", func() {
					got, _ := store.Get(ctx, sess.ID)
					got.Records[0].Name = "changed"
					again, _ := store.Get(ctx, sess.ID)
					So(again.Records[0].Name, ShouldEqual, "sa")
				})

				Convey("Then deleting should drop the session and its records", func() {
					So(store.Delete(ctx, sess.ID), ShouldBeNil)
					So(store.RecordCount(ctx), ShouldEqual, 0)
					_, err := store.Get(ctx, sess.ID)
					So(err, ShouldEqual, ErrNotFound)
					So(store.Save(ctx, sess), ShouldEqual, ErrNotFound)
					So(store.Delete(ctx, sess.ID), ShouldEqual, ErrNotFound)
				})
			})
		})

		Convey("When sessions go idle", func() {
			old, _ := store.Create(ctx)
			clock.Advance(time.Hour)
			fresh, _ := store.Create(ctx)

			removed := store.Sweep(ctx, clock.Now().Add(-30*time.Minute))

			Convey("Then only the idle ones should be swept", func() {
				So(removed, ShouldEqual, 1)
				_, err := store.Get(ctx, old.ID)
				So(err, ShouldEqual, ErrNotFound)
				_, err = store.Get(ctx, fresh.ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When unknown ids are queried", func() {
			Convey("Then ErrNotFound should be returned", func() {
				_, _, err := store.TopN(ctx, "missing", 10)
				So(err, ShouldEqual, ErrNotFound)
				_, err = store.Lookup(ctx, "missing", "a")
				So(err, ShouldEqual, ErrNotFound)
			})
		})
	})

	Convey("Given a store with a custom id generator", t, func() {
		n := 0
		store := NewMemStore(ctx, WithIDGenerator(func() string { n++; return fmt.Sprintf("s-%d", n) }))
		Reset(func() { _ = store.Close() })

		Convey("Then ids should come from the generator", func() {
			a, _ := store.Create(ctx)
			b, _ := store.Create(ctx)
			So(a.ID, ShouldEqual, "s-1")
			So(b.ID, ShouldEqual, "s-2")
		})
	})
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore(ctx, WithMetricsUpdateInterval(time.Millisecond))
	defer func() { _ = store.Close() }()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := store.Create(ctx)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			sess.Records = rankedRecords(fmt.Sprint(i), "x")
			if err := store.Save(ctx, sess); err != nil {
				t.Errorf("save: %v", err)
			}
			if _, _, err := store.TopN(ctx, sess.ID, 1); err != nil {
				t.Errorf("topn: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.Count(ctx); got != 20 {
		t.Fatalf("expected 20 sessions, got %d", got)
	}
	if got := store.RecordCount(ctx); got != 40 {
		t.Fatalf("expected 40 records, got %d", got)
	}
}
