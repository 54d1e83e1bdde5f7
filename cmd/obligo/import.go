package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/obligo/obligo/internal/cli"
	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/csvimport"
	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX or CSV files",
		Long: `Import bank transactions from OFX or QFX (Quicken) files, or from CSV
statement exports. The format is chosen by file extension.

Examples:
  # Import a single file
  obligo import ~/Downloads/chase_jan_2024.qfx

  # Import everything at once
  obligo import ~/Downloads/*.qfx ~/Downloads/checking.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing statement files",
		"file_count", len(allFiles),
		"dry_run", dryRun)

	allTransactions, fileResults := collectTransactions(ctx, allFiles)

	if len(allTransactions) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	fmt.Println("\nFile import summary:")
	for _, fr := range fileResults {
		fmt.Printf("  - %s: %d transactions\n", fr.name, fr.added)
	}

	if dryRun {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("Dry run complete, %d transactions not saved", len(allTransactions))))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, allTransactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transactions", len(allTransactions))))
	return nil
}

// fileResult records how many transactions one statement file contributed.
type fileResult struct {
	name  string
	added int
}

// collectTransactions parses each file in order, deduplicating transactions
// by hash across files. The returned results keep the input file order so
// the summary is stable across runs.
func collectTransactions(ctx context.Context, allFiles []string) ([]model.Transaction, []fileResult) {
	var allTransactions []model.Transaction
	seen := make(map[string]bool)
	var fileResults []fileResult

	for _, filePath := range allFiles {
		transactions, err := parseStatementFile(ctx, filePath)
		if err != nil {
			common.LogError(err, "Failed to parse file", common.Fields{"file": filePath})
			continue
		}

		if len(transactions) == 0 {
			slog.Warn("No transactions found in file",
				"file", filepath.Base(filePath))
			continue
		}

		addedCount := 0
		for _, tx := range transactions {
			if !seen[tx.Hash] {
				seen[tx.Hash] = true
				allTransactions = append(allTransactions, tx)
				addedCount++
			}
		}

		fileResults = append(fileResults, fileResult{filepath.Base(filePath), addedCount})
		slog.Info("Processed file",
			"file", filepath.Base(filePath),
			"transactions_found", len(transactions),
			"added", addedCount,
			"duplicates", len(transactions)-addedCount)
	}

	return allTransactions, fileResults
}

// parseStatementFile picks a parser by extension and parses one file.
func parseStatementFile(ctx context.Context, filePath string) ([]model.Transaction, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ofx", ".qfx":
		return ofx.NewParser().ParseFile(ctx, f)
	case ".csv":
		return csvimport.NewParser().ParseFile(ctx, f)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filePath)
	}
}
