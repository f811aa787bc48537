package scribe

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mkpbt/config"
	"mkpbt/population"

	. "github.com/smartystreets/goconvey/convey"
)

func TestScribeWritesHeaderAndRows(t *testing.T) {
	Convey("A new Scribe creates records/<ts>/{info.json,history.csv} with the fixed header", t, func() {
		tmp := t.TempDir()
		cwd, err := os.Getwd()
		So(err, ShouldBeNil)
		So(os.Chdir(tmp), ShouldBeNil)
		defer os.Chdir(cwd)

		pop := population.New(3)
		for i, slot := range pop.Slots {
			slot.Write(population.SlotValues{Steps: float64(i), Value: float64(i * 10)})
		}

		cfg := config.Default()
		start := time.Unix(1700000000, 0)
		s, err := New(pop, cfg, 10*time.Millisecond, start, zerolog.New(io.Discard))
		So(err, ShouldBeNil)

		s.tick()
		s.Close()

		info := filepath.Join(s.dir, "info.json")
		_, err = os.Stat(info)
		So(err, ShouldBeNil)

		historyPath := filepath.Join(s.dir, "history.csv")
		f, err := os.Open(historyPath)
		So(err, ShouldBeNil)
		defer f.Close()

		records, err := csv.NewReader(f).ReadAll()
		So(err, ShouldBeNil)
		So(records[0], ShouldResemble, Header)
		So(len(records), ShouldEqual, 1+len(pop.Slots))
	})
}

func TestScribeRunStopsOnDone(t *testing.T) {
	Convey("Run exits promptly once done is closed", t, func() {
		tmp := t.TempDir()
		cwd, err := os.Getwd()
		So(err, ShouldBeNil)
		So(os.Chdir(tmp), ShouldBeNil)
		defer os.Chdir(cwd)

		pop := population.New(2)
		cfg := config.Default()
		s, err := New(pop, cfg, 5*time.Millisecond, time.Now(), zerolog.New(io.Discard))
		So(err, ShouldBeNil)

		done := make(chan struct{})
		finished := make(chan struct{})
		go func() {
			s.Run(done)
			close(finished)
		}()

		time.Sleep(20 * time.Millisecond)
		close(done)

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Run did not stop after done closed")
		}
	})
}
