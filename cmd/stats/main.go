package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"shogichat/pkg/record"
)

type moveStats struct {
	binSize     int
	count       int
	sum         int64
	min         int
	max         int
	initialized bool
	bins        map[int]int
}

type opponentAgg struct {
	games  int
	humans int
	ai     int
}

func newMoveStats(binSize int) *moveStats {
	return &moveStats{
		binSize: binSize,
		bins:    make(map[int]int),
	}
}

func (ms *moveStats) Add(moves int32) {
	value := int(moves)
	ms.count++
	ms.sum += int64(value)
	if !ms.initialized {
		ms.min = value
		ms.max = value
		ms.initialized = true
	} else {
		if value < ms.min {
			ms.min = value
		}
		if value > ms.max {
			ms.max = value
		}
	}
	binStart := (value / ms.binSize) * ms.binSize
	ms.bins[binStart]++
}

type summary struct {
	games     int
	unended   int
	results   map[string]int
	opponents map[string]*opponentAgg
	moves     *moveStats
}

func newSummary(binSize int) *summary {
	return &summary{
		results:   make(map[string]int),
		opponents: make(map[string]*opponentAgg),
		moves:     newMoveStats(binSize),
	}
}

func (s *summary) Add(rec record.GameRecord) {
	s.games++
	s.moves.Add(rec.MoveCount)
	if rec.Result == "" {
		s.unended++
	} else {
		s.results[rec.Result]++
	}
	agg, ok := s.opponents[rec.Opponent]
	if !ok {
		agg = &opponentAgg{}
		s.opponents[rec.Opponent] = agg
	}
	agg.games++
	switch rec.Winner {
	case "sente":
		agg.humans++
	case "gote":
		agg.ai++
	}
}

func (s *summary) Write(w io.Writer) {
	fmt.Fprintf(w, "games: %d (unfinished=%d)\n", s.games, s.unended)
	for _, result := range sortedKeys(s.results) {
		fmt.Fprintf(w, "result %s: %d\n", result, s.results[result])
	}
	fmt.Fprintln(w, "opponent,games,human_wins,ai_wins")
	for _, name := range sortedKeys(s.opponents) {
		agg := s.opponents[name]
		fmt.Fprintf(w, "%s,%d,%d,%d\n", name, agg.games, agg.humans, agg.ai)
	}
	if s.moves.count == 0 {
		return
	}
	fmt.Fprintf(w, "move count range: %d-%d (avg %.1f)\n", s.moves.min, s.moves.max, float64(s.moves.sum)/float64(s.moves.count))
	fmt.Fprintf(w, "move count distribution (bin size=%d):\n", s.moves.binSize)
	keys := make([]int, 0, len(s.moves.bins))
	for key := range s.moves.bins {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, start := range keys {
		end := start + s.moves.binSize - 1
		fmt.Fprintf(w, "%d-%d,%d\n", start, end, s.moves.bins[start])
	}
}

func main() {
	parquetPath := flag.String("parquet", "", "input parquet file of game records")
	binSize := flag.Int("bin-size", 20, "move count bin size")
	kifOut := flag.String("kif-out", "", "also write each game's KIF to this directory")
	flag.Parse()

	if *binSize <= 0 {
		fatal(fmt.Errorf("bin-size must be > 0"))
	}
	if *parquetPath == "" {
		fatal(fmt.Errorf("-parquet is required"))
	}

	records, err := record.ReadParquet(*parquetPath, 4)
	if err != nil {
		fatal(err)
	}
	if *kifOut != "" {
		if err := writeKIF(*kifOut, records); err != nil {
			fatal(err)
		}
	}

	s := newSummary(*binSize)
	for _, rec := range records {
		s.Add(rec)
	}
	fmt.Printf("input parquet: %s\n", *parquetPath)
	s.Write(os.Stdout)
}

func writeKIF(dir string, records []record.GameRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, rec := range records {
		path := filepath.Join(dir, rec.GameID+".kif")
		if err := os.WriteFile(path, []byte(rec.KIF), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
