// Command ledger-backup exports the ledger to a JSON or XLSX file and
// restores it from a JSON backup.
//
//	ledger-backup export -o ledger.json
//	ledger-backup export -o ledger.xlsx
//	ledger-backup import -i ledger.json
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"moneytracker/internal/app"
	"moneytracker/internal/backup"
	"moneytracker/internal/cli"
	"moneytracker/internal/log"
)

const usage = `usage:
  ledger-backup export -o FILE   write a backup (.json or .xlsx); reads only
  ledger-backup import -i FILE   restore a .json backup; seeds default tags
                                 on an empty backend before restoring`

var errUsage = errors.New(usage)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentBackup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := cli.OpenBackend(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	ledger := app.New(res, logger, nil)
	defer ledger.Close()

	if err := run(ctx, ledger, os.Args[1:], logger); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("Backup command failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, ledger *app.App, args []string, logger *log.Logger) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		out := fs.String("o", "", "output file (.json or .xlsx)")
		if err := fs.Parse(args[1:]); err != nil || *out == "" {
			return errUsage
		}
		if err := ledger.Load(ctx); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		return exportTo(ledger, *out, logger)
	case "import":
		fs := flag.NewFlagSet("import", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		in := fs.String("i", "", "backup file (.json)")
		if err := fs.Parse(args[1:]); err != nil || *in == "" {
			return errUsage
		}
		if err := ledger.Init(ctx); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
		return importFrom(ctx, ledger, *in, logger)
	}
	return errUsage
}

func exportTo(ledger *app.App, path string, logger *log.Logger) error {
	write := backup.WriteJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".xlsx":
		write = backup.WriteXLSX
	default:
		return fmt.Errorf("unsupported export format %q", filepath.Ext(path))
	}

	doc := backup.Snapshot(ledger, time.Now())
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("Ledger exported",
		log.FieldOperation, log.OpExport,
		"file", path,
		"records", len(doc.Records),
		"tags", len(doc.Tags))
	return nil
}

func importFrom(ctx context.Context, ledger *app.App, path string, logger *log.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := backup.ReadJSON(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	backup.Restore(ctx, ledger, doc)

	logger.Info("Ledger imported",
		log.FieldOperation, log.OpImport,
		"file", path,
		"records", len(doc.Records),
		"tags", len(doc.Tags))
	return nil
}
