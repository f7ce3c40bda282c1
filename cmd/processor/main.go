package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"efscli/internal/config"
	"efscli/internal/dataprocessing"
	"efscli/internal/exporter"
	"efscli/internal/infrastructure"
	"efscli/internal/validation"
)

func main() {
	inFile := flag.String("in", "", "input maintenance-log workbook (.xlsx)")
	outFile := flag.String("out", "", "output file (defaults to <input>_cleaned.<format> next to the input)")
	format := flag.String("format", "csv", "output format: csv, xlsx or json")
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "usage: processor -in <workbook.xlsx> [-out <file>] [-format csv|xlsx|json]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.Output = "stdout"
		cfg.Logging.Format = "text"
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	logger.Info("processing maintenance log",
		slog.String("input", *inFile),
		slog.String("format", *format))

	parser := dataprocessing.NewParser(logger)
	parsed, err := parser.ParseFile(*inFile)
	if err != nil {
		logger.Error("parse failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("workbook parsed",
		slog.String("sheet", parsed.SheetName),
		slog.Int("rows", parsed.RowCount))

	validator := validation.NewRowValidator(logger)
	result := validator.Validate(parsed.Dataset.Rows, parsed.Mapping)
	fmt.Println(validation.Summary(result))
	if !result.Valid {
		logger.Error("validation failed, aborting",
			slog.Int("errors", len(result.Errors)))
		os.Exit(1)
	}

	pipeline := dataprocessing.NewPipeline(logger)
	transformed := pipeline.Transform(parsed.Dataset, parsed.Mapping)
	fmt.Println(pipeline.Summary(transformed))

	out := *outFile
	if out == "" {
		base := strings.TrimSuffix(*inFile, filepath.Ext(*inFile))
		out = fmt.Sprintf("%s_cleaned.%s", base, *format)
	}

	switch *format {
	case "csv":
		if err := exporter.NewCSVWriter(logger).WriteDatasetFile(out, transformed.Data); err != nil {
			logger.Error("csv export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case "xlsx":
		deleted := pipeline.GetDeletedRows()
		err := exporter.NewExcelWriter(logger).WriteWorkbookFile(out, exporter.WorkbookData{
			Cleaned:       transformed.Data,
			Deleted:       &deleted,
			SourceHeaders: parsed.Headers,
		})
		if err != nil {
			logger.Error("xlsx export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case "json":
		f, err := os.Create(out)
		if err != nil {
			logger.Error("json export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := exporter.WriteJSON(f, transformed.Data, &transformed.Stats); err != nil {
			f.Close()
			logger.Error("json export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		f.Close()
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q: want csv, xlsx or json\n", *format)
		os.Exit(2)
	}

	logger.Info("export complete",
		slog.String("output", out),
		slog.Int("rows", len(transformed.Data.Rows)))
}
