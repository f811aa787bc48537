// Package scribe implements the Scribe of spec.md §4.3: a periodic,
// strictly observational loop that reads the Population snapshot on a
// timer and appends one CSV row per worker per tick. It never decides
// anything and must stay live even if every worker stalls.
package scribe

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog"

	"mkpbt/config"
	"mkpbt/population"
)

// Header is the fixed CSV column order of spec.md §6.4. Open Question 1
// resolves the source's dangling `csv_header` reference by using these
// fixed names rather than any dynamically assembled header string.
var Header = []string{"Time", "Worker", "Age", "Value", "Temperature", "Cooling rate", "Mutation prob."}

// DefaultDelay is the scribe's tick period, spec.md §4.3's default of one
// second.
const DefaultDelay = time.Second

// Scribe owns the output directory, an open CSV writer, and a reference to
// the Population it samples.
type Scribe struct {
	pop      *population.Population
	delay    time.Duration
	start    time.Time
	dir      string
	csvFile  *os.File
	csv      *csv.Writer
	log      zerolog.Logger
}

// New creates a records/<UTC timestamp>/ directory (mirroring the Python
// original's scribe_subroutine layout) containing info.json (a dump of the
// run's configuration) and history.csv (the header row only, appended to
// thereafter), and returns a Scribe ready to tick.
func New(pop *population.Population, cfg *config.Config, delay time.Duration, startedAt time.Time, log zerolog.Logger) (*Scribe, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}

	dir := filepath.Join("records", startedAt.UTC().Format("20060102150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scribe: creating records directory: %w", err)
	}

	infoBytes, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("scribe: marshaling info.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "info.json"), infoBytes, 0o644); err != nil {
		return nil, fmt.Errorf("scribe: writing info.json: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "history.csv"))
	if err != nil {
		return nil, fmt.Errorf("scribe: creating history.csv: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return nil, fmt.Errorf("scribe: writing csv header: %w", err)
	}
	w.Flush()

	return &Scribe{
		pop:     pop,
		delay:   delay,
		start:   startedAt,
		dir:     dir,
		csvFile: f,
		csv:     w,
		log:     log.With().Str("component", "scribe").Str("dir", dir).Logger(),
	}, nil
}

// Run ticks every Scribe.delay until done is closed, appending a row per
// worker each tick and logging a sorted summary. It closes the CSV file
// before returning.
func (s *Scribe) Run(done <-chan struct{}) {
	defer s.Close()
	for range channerics.NewTicker(done, s.delay) {
		s.tick()
	}
}

func (s *Scribe) tick() {
	elapsedMinutes := time.Since(s.start).Minutes()
	values := s.pop.ReadAll()

	rows := make([]row, len(values))
	for i, v := range values {
		rows[i] = row{index: i, values: v}
	}

	for _, r := range rows {
		record := []string{
			fmt.Sprintf("%.6f", elapsedMinutes),
			fmt.Sprintf("%d", r.index),
			fmt.Sprintf("%.6f", r.values.Steps),
			fmt.Sprintf("%.6f", r.values.Value),
			fmt.Sprintf("%.6f", r.values.Temperature),
			fmt.Sprintf("%.6f", r.values.CoolingRate),
			fmt.Sprintf("%.6f", r.values.PMutations),
		}
		if err := s.csv.Write(record); err != nil {
			s.log.Error().Err(err).Msg("writing csv row")
		}
	}
	s.csv.Flush()

	// Mirrors the Python original's console summary: workers sorted by
	// value, descending, as an at-a-glance leaderboard.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].values.Value != rows[j].values.Value {
			return rows[i].values.Value > rows[j].values.Value
		}
		return rows[i].values.Temperature > rows[j].values.Temperature
	})
	top := rows
	if len(top) > 5 {
		top = top[:5]
	}
	event := s.log.Info().Float64("elapsed_min", elapsedMinutes)
	for _, r := range top {
		event = event.Float64(fmt.Sprintf("worker_%d_value", r.index), r.values.Value)
	}
	event.Msg("population summary")
}

// Close flushes and closes the CSV file.
func (s *Scribe) Close() {
	s.csv.Flush()
	s.csvFile.Close()
}

type row struct {
	index  int
	values population.SlotValues
}
