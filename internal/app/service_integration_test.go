package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	service "github.com/okian/aimrank/internal/app"
	"github.com/okian/aimrank/internal/domain/model"
	"github.com/okian/aimrank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(n int) *int { return &n }

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over the bundled dataset", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When walking every analyst page by accuracy", func() {
			var all []ranking.Ranked[model.Analyst]
			first, err := svc.RankAnalysts(ctx, service.Query{})
			So(err, ShouldBeNil)
			for p := 1; p <= first.TotalPages; p++ {
				view, err := svc.RankAnalysts(ctx, service.Query{Sort: "accuracy", Page: intp(p)})
				So(err, ShouldBeNil)
				all = append(all, view.Items...)
			}

			Convey("Then ranks are dense and ordered", func() {
				So(first.TotalPages, ShouldEqual, 3)
				So(first.TotalItems, ShouldEqual, 23)
				So(len(all), ShouldEqual, 23)
				for i, r := range all {
					So(r.Rank, ShouldEqual, i+1)
					if i > 0 {
						So(all[i-1].Entity.Metrics.Accuracy, ShouldBeGreaterThanOrEqualTo, r.Entity.Metrics.Accuracy)
					}
				}
			})

			Convey("And the first page carries the window", func() {
				So(fmt.Sprint(first.Window), ShouldEqual, "[1 2 3]")
				So(first.Navigation.HasPrev, ShouldBeFalse)
				So(first.Navigation.HasNext, ShouldBeTrue)
			})
		})

		Convey("When ranking by target error", func() {
			view, err := svc.RankAnalysts(ctx, service.Query{Sort: "targetError", Size: intp(100)})
			So(err, ShouldBeNil)

			Convey("Then lower errors come first", func() {
				for i := 1; i < len(view.Items); i++ {
					So(view.Items[i-1].Entity.Metrics.TargetError, ShouldBeLessThanOrEqualTo, view.Items[i].Entity.Metrics.TargetError)
				}
			})
		})

		Convey("When ranking stocks by upside on the last page", func() {
			view, err := svc.RankStocks(ctx, service.Query{Page: intp(2)})

			Convey("Then stocks without upside close the ranking", func() {
				So(err, ShouldBeNil)
				So(len(view.Items), ShouldEqual, 4)
				So(view.Items[0].Rank, ShouldEqual, 11)
				So(view.Items[2].Entity.Ticker, ShouldEqual, "005490")
				So(view.Items[3].Entity.Ticker, ShouldEqual, "009540")
				So(view.Navigation.HasNext, ShouldBeFalse)
			})
		})

		Convey("When filtering by sector", func() {
			stocks, err := svc.RankStocks(ctx, service.Query{Sector: "banks"})
			So(err, ShouldBeNil)
			analysts, err := svc.RankAnalysts(ctx, service.Query{Sector: "semiconductors", Size: intp(100)})
			So(err, ShouldBeNil)

			Convey("Then only matching entities are ranked from 1", func() {
				So(stocks.TotalItems, ShouldEqual, 2)
				So(stocks.Items[0].Rank, ShouldEqual, 1)
				So(analysts.TotalItems, ShouldBeGreaterThan, 0)
				for _, r := range analysts.Items {
					covered := false
					for _, s := range r.Entity.Sectors {
						covered = covered || strings.EqualFold(s, "Semiconductors")
					}
					So(covered, ShouldBeTrue)
				}
			})
		})

		Convey("When paging past the end", func() {
			view, err := svc.RankStocks(ctx, service.Query{Page: intp(9)})

			Convey("Then the page is empty but totals are kept", func() {
				So(err, ShouldBeNil)
				So(view.Items, ShouldBeEmpty)
				So(view.TotalPages, ShouldEqual, 2)
				So(view.Navigation.HasNext, ShouldBeFalse)
			})
		})

		Convey("When the page size exceeds the cap", func() {
			view, err := svc.RankAnalysts(ctx, service.Query{Size: intp(1000)})

			Convey("Then it is clamped", func() {
				So(err, ShouldBeNil)
				So(view.PageSize, ShouldEqual, 100)
				So(view.TotalPages, ShouldEqual, 1)
			})
		})

		Convey("When the query is invalid", func() {
			_, unknown := svc.RankAnalysts(ctx, service.Query{Sort: "popularity"})
			_, wrongKind := svc.RankAnalysts(ctx, service.Query{Sort: "buy_high"})
			_, badPage := svc.RankStocks(ctx, service.Query{Page: intp(-1)})
			_, badSize := svc.RankStocks(ctx, service.Query{Size: intp(-5)})
			_, zeroPage := svc.RankAnalysts(ctx, service.Query{Page: intp(0)})
			_, zeroSize := svc.RankAnalysts(ctx, service.Query{Size: intp(0)})

			Convey("Then the engine errors surface", func() {
				So(errors.Is(unknown, ranking.ErrUnknownSortKey), ShouldBeTrue)
				So(errors.Is(wrongKind, ranking.ErrUnknownSortKey), ShouldBeTrue)
				So(errors.Is(badPage, ranking.ErrOutOfRangePage), ShouldBeTrue)
				So(errors.Is(badSize, ranking.ErrInvalidPageSize), ShouldBeTrue)
				So(errors.Is(zeroPage, ranking.ErrOutOfRangePage), ShouldBeTrue)
				So(errors.Is(zeroSize, ranking.ErrInvalidPageSize), ShouldBeTrue)
			})
		})

		Convey("When looking up single entities", func() {
			a, err := svc.AnalystByID(ctx, "an-001")
			So(err, ShouldBeNil)
			st, err := svc.StockByTicker(ctx, "005930")
			So(err, ShouldBeNil)

			Convey("Then they are returned", func() {
				So(a.Name, ShouldEqual, "Kim Minjun")
				So(st.Name, ShouldEqual, "Samsung Electronics")
			})
		})
	})
}

func TestServiceReload(t *testing.T) {
	Convey("Given a service over a dataset file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "data.yaml")
		So(os.WriteFile(path, []byte("stocks:\n  - {ticker: \"A\", upside: 1}\n"), 0o600), ShouldBeNil)

		svc := service.New(service.WithDatasetPath(path))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When the file changes and the service reloads", func() {
			So(os.WriteFile(path, []byte("stocks:\n  - {ticker: \"A\", upside: 1}\n  - {ticker: \"B\", upside: 2}\n"), 0o600), ShouldBeNil)
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then rankings reflect the new data", func() {
				view, err := svc.RankStocks(ctx, service.Query{})
				So(err, ShouldBeNil)
				So(view.TotalItems, ShouldEqual, 2)
				So(view.Items[0].Entity.Ticker, ShouldEqual, "B")
			})
		})

		Convey("When the reload fails", func() {
			So(os.WriteFile(path, []byte("stocks: [unclosed"), 0o600), ShouldBeNil)
			err := svc.Reload(ctx)

			Convey("Then the previous data is kept", func() {
				So(err, ShouldNotBeNil)
				view, err := svc.RankStocks(ctx, service.Query{})
				So(err, ShouldBeNil)
				So(view.TotalItems, ShouldEqual, 1)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a service with concurrent readers", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When many goroutines rank and reload at once", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 64)
			keys := []string{"accuracy", "avg_return", "target_error"}
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					view, err := svc.RankAnalysts(ctx, service.Query{Sort: keys[i%3], Page: intp(i%3 + 1)})
					if err != nil {
						errs <- err
						return
					}
					if view.TotalItems != 23 {
						errs <- errors.New("inconsistent catalog size")
					}
				}(i)
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := svc.Reload(ctx); err != nil {
					errs <- err
				}
			}()
			wg.Wait()
			close(errs)

			Convey("Then every query succeeds", func() {
				var failures []error
				for err := range errs {
					failures = append(failures, err)
				}
				So(failures, ShouldBeEmpty)
			})
		})
	})
}
