// Command pacmap embeds the rows of a numeric CSV file with PaCMAP and prints
// the embedding as CSV on stdout.
//
//	pacmap -dims 2 -iterations 450 points.csv > embedding.csv
//
// With no file argument the points are read from stdin.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/TrevorS/pacmap"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cfg := pacmap.DefaultConfig()

	showVersion := flag.Bool("version", false, "print version and exit")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logEvery := flag.Int("log-every", 50, "log progress every n iterations (0 disables)")
	header := flag.Bool("header", false, "skip the first CSV row")
	flag.IntVar(&cfg.NDimensions, "dims", cfg.NDimensions, "embedding dimensions")
	flag.IntVar(&cfg.NumNeighbourPairs, "neighbours", cfg.NumNeighbourPairs, "neighbour pairs per point (0 derives from n)")
	flag.Float64Var(&cfg.RatioMidNearPairs, "mid-near-ratio", cfg.RatioMidNearPairs, "mid-near pairs per neighbour pair")
	flag.Float64Var(&cfg.RatioFurtherPairs, "further-ratio", cfg.RatioFurtherPairs, "further pairs per neighbour pair")
	flag.Float64Var(&cfg.LearningRate, "learning-rate", cfg.LearningRate, "Adagrad learning rate")
	flag.IntVar(&cfg.NumIterations, "iterations", cfg.NumIterations, "optimizer iterations")
	flag.Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 draws one)")
	flag.IntVar(&cfg.Workers, "workers", 0, "worker goroutines (0 uses all CPUs)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level: %v\n", err)
		os.Exit(2)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).With().Timestamp().Logger()
	cfg.Logger = &logger
	if *logEvery > 0 {
		cfg.Observer = pacmap.LogObserver(logger, *logEvery)
	}

	if err := run(cfg, flag.Arg(0), *header, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("pacmap failed")
		os.Exit(1)
	}
}

func run(cfg pacmap.Config, path string, skipHeader bool, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	points, err := readPoints(in, skipHeader)
	if err != nil {
		return err
	}

	reducer, err := pacmap.New(cfg)
	if err != nil {
		return err
	}
	result, err := reducer.Fit(points, pacmap.InitRandom)
	if err != nil {
		return err
	}

	return writePoints(stdout, result.Embedding)
}

// readPoints parses every CSV record as one point.
func readPoints(r io.Reader, skipHeader bool) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	var points [][]float64
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return points, nil
		}
		if err != nil {
			return nil, err
		}
		if skipHeader && line == 1 {
			continue
		}
		p := make([]float64, len(record))
		for j, field := range record {
			if p[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, j+1, err)
			}
		}
		points = append(points, p)
	}
}

// writePoints prints one CSV record per embedded point.
func writePoints(w io.Writer, points [][]float64) error {
	cw := csv.NewWriter(w)
	record := make([]string, 0)
	for _, p := range points {
		record = record[:0]
		for _, v := range p {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
