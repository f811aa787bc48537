package supervisor

import (
	"context"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mkpbt/config"

	. "github.com/smartystreets/goconvey/convey"
)

const toyInstanceData = "4 1 17\n10 6 8 7\n5 3 4 2\n7\n"

func writeToyInstance(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "toy.dat")
	if err := os.WriteFile(path, []byte(toyInstanceData), 0o644); err != nil {
		t.Fatalf("writing toy instance: %v", err)
	}
	return path
}

func testConfig(instPath string) *config.Config {
	cfg := config.Default()
	cfg.Filename = instPath
	cfg.NWorkers = 4
	cfg.TimeLimit = 1.0 / 60 // ~1 second
	cfg.Horizon = 5
	cfg.Selection.Inactiv = 2
	cfg.Selection.NProtected = 0
	return cfg
}

func TestRunCompletesWithinTimeLimit(t *testing.T) {
	Convey("Run tears down on its own after time_limit elapses", t, func() {
		tmp := t.TempDir()
		cwd, err := os.Getwd()
		So(err, ShouldBeNil)
		So(os.Chdir(tmp), ShouldBeNil)
		defer os.Chdir(cwd)

		instPath := writeToyInstance(t, tmp)
		cfg := testConfig(instPath)

		opts := Options{MonitorAddr: "-", SeedSource: rand.New(rand.NewSource(7))}
		log := zerolog.New(io.Discard)

		done := make(chan error, 1)
		go func() {
			done <- Run(context.Background(), cfg, opts, log)
		}()

		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(10 * time.Second):
			t.Fatal("Run did not return after its own time_limit elapsed")
		}
	})
}

func TestRunRespectsExternalCancellation(t *testing.T) {
	Convey("Run tears down promptly if the caller cancels ctx early", t, func() {
		tmp := t.TempDir()
		cwd, err := os.Getwd()
		So(err, ShouldBeNil)
		So(os.Chdir(tmp), ShouldBeNil)
		defer os.Chdir(cwd)

		instPath := writeToyInstance(t, tmp)
		cfg := testConfig(instPath)
		cfg.TimeLimit = 10 // long enough that cancellation, not the timer, ends the run

		ctx, cancel := context.WithCancel(context.Background())
		opts := Options{MonitorAddr: "-", SeedSource: rand.New(rand.NewSource(3))}
		log := zerolog.New(io.Discard)

		done := make(chan error, 1)
		go func() {
			done <- Run(ctx, cfg, opts, log)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			So(err, ShouldBeNil)
		case <-time.After(10 * time.Second):
			t.Fatal("Run did not return after external cancellation")
		}
	})
}

func TestRunSkipsCoordinatorInBaselineMode(t *testing.T) {
	Convey("Baseline mode runs independent SA with no coordinator", t, func() {
		tmp := t.TempDir()
		cwd, err := os.Getwd()
		So(err, ShouldBeNil)
		So(os.Chdir(tmp), ShouldBeNil)
		defer os.Chdir(cwd)

		instPath := writeToyInstance(t, tmp)
		cfg := testConfig(instPath)
		cfg.Baseline = true

		opts := Options{MonitorAddr: "-", SeedSource: rand.New(rand.NewSource(5))}
		log := zerolog.New(io.Discard)

		err = Run(context.Background(), cfg, opts, log)
		So(err, ShouldBeNil)
	})
}
