package model_test

import (
	"testing"
	"time"

	model "github.com/okian/unirank/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSessionClone(t *testing.T) {
	convey.Convey("Given a session holding ranked records", t, func() {
		s := model.Session{
			ID:        "s-1",
			CreatedAt: time.Now(),
			Records: []model.RankingRecord{
				{Name: "Jane Smith", ExternalID: "1", Department: "CE", GPA: 3.95, Rank: 1},
			},
			Batches: 1,
		}

		convey.Convey("When the clone is modified", func() {
			c := s.Clone()
			c.Records[0].Name = "changed"
			c.Records = append(c.Records, model.RankingRecord{Name: "extra"})

			convey.Convey("Then the original should be untouched", func() {
				convey.So(s.Records[0].Name, convey.ShouldEqual, "Jane Smith")
				convey.So(len(s.Records), convey.ShouldEqual, 1)
				convey.So(c.ID, convey.ShouldEqual, s.ID)
				convey.So(c.Batches, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When cloning a session without records", func() {
			c := model.Session{ID: "empty"}.Clone()

			convey.Convey("Then records should stay nil", func() {
				convey.So(c.Records, convey.ShouldBeNil)
			})
		})
	})
}
