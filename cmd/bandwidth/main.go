// Package main implements the bandwidth CLI tool for scoring calendar
// availability.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/codeGROOVE-dev/bandwidth/pkg/bandwidth"
	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
	"github.com/codeGROOVE-dev/bandwidth/pkg/persona"
	"github.com/codeGROOVE-dev/bandwidth/pkg/render"
	"github.com/codeGROOVE-dev/bandwidth/pkg/workday"
)

var (
	timeZone     = flag.String("tz", "", "IANA time zone for the analysis, e.g. America/New_York (or set BANDWIDTH_TZ)")
	date         = flag.String("date", "", "Workday date as YYYY-MM-DD (default: today in the zone)")
	personaID    = flag.String("persona", "", "Persona id: meeting-heavy, balanced, or maker")
	personasFile = flag.String("personas", "", "Persona overrides file, YAML or JSON (or set PERSONAS_FILE)")
	advanced     = flag.Bool("advanced", false, "Include per-slot penalty breakdowns in JSON output")
	jsonOutput   = flag.Bool("json", false, "Emit the JSON response instead of the terminal report")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	version      = flag.Bool("version", false, "Show version")
)

// scheduleFile is the accepted input document: either a single day's events
// or a multi-day schedule list. Top-level fields are defaults that flags
// override.
type scheduleFile struct {
	TimeZone  string               `json:"timeZone"`
	Date      string               `json:"date"`
	Persona   string               `json:"persona"`
	Events    []calendar.RawEvent  `json:"events"`
	Schedules []bandwidth.Schedule `json:"schedules"`
}

func main() {
	flag.Parse()

	if *version {
		fmt.Println("bandwidth CLI v1.0.0")
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <schedule.json>  (use - for stdin)\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Configure logging
	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *timeZone == "" {
		*timeZone = os.Getenv("BANDWIDTH_TZ")
	}
	if *personasFile == "" {
		*personasFile = os.Getenv("PERSONAS_FILE")
	}

	input, err := readSchedule(args[0])
	if err != nil {
		logger.Error("Failed to read schedule", "path", args[0], "error", err)
		os.Exit(1)
	}

	if *timeZone == "" {
		*timeZone = input.TimeZone
	}
	if *timeZone == "" {
		*timeZone = "UTC"
	}
	if *date == "" {
		*date = input.Date
	}
	if *personaID == "" {
		*personaID = input.Persona
	}

	if *date != "" {
		if _, ok := workday.ParseDate(*date); !ok {
			logger.Error("Invalid date, use YYYY-MM-DD", "date", *date)
			os.Exit(1)
		}
	}

	analyzerOpts := []bandwidth.Option{}
	if *personasFile != "" {
		personas, err := persona.LoadOverrides(*personasFile)
		if err != nil {
			logger.Error("Failed to load persona overrides", "path", *personasFile, "error", err)
			os.Exit(1)
		}
		analyzerOpts = append(analyzerOpts, bandwidth.WithPersonas(personas))
	}
	analyzer := bandwidth.NewWithLogger(logger, analyzerOpts...)

	if len(input.Schedules) > 0 {
		for _, schedule := range input.Schedules {
			if _, ok := workday.ParseDate(schedule.Date); !ok {
				logger.Error("Invalid schedule date, use YYYY-MM-DD", "date", schedule.Date)
				os.Exit(1)
			}
		}
		analysis := analyzer.AnalyzeMultiDay(input.Schedules, *timeZone, *personaID)
		if *jsonOutput {
			emit(logger, analysis.Response(*timeZone, *advanced))
			return
		}
		fmt.Print(render.MultiDayReport(analysis, *timeZone))
		return
	}

	analysis := analyzer.AnalyzeDay(input.Events, *timeZone, *date, *personaID)
	if *jsonOutput {
		emit(logger, analysis.Response(*timeZone, *advanced))
		return
	}
	fmt.Print(render.DayReport(analysis, *timeZone))
}

func readSchedule(path string) (*scheduleFile, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var input scheduleFile
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	return &input, nil
}

func emit(logger *slog.Logger, response any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		logger.Error("Failed to encode response", "error", err)
		os.Exit(1)
	}
}
