package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wadjakorntonsri/go-linkbio/pkg/adapters/repository"
	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/logger"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

var (
	databaseURL string
	importFile  string
	exportFile  string
)

var rootCmd = &cobra.Command{
	Use:           "linkbio",
	Short:         "Maintenance commands for the linkbio store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every linktree as JSON",
	Long: `Dumps all linktrees, links included, as an indented JSON array.

Examples:
  linkbio export > backup.json
  linkbio export --out backup.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *repository.Store) error {
			out := cmd.OutOrStdout()
			if exportFile != "" {
				f, err := os.Create(exportFile)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			n, err := exportLinktrees(ctx, store.Linktrees, out)
			if err != nil {
				return err
			}
			logger.GetAppLogger().Infof("Exported %d linktrees", n)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load linktrees from an export file",
	Long: `Inserts linktrees from a JSON export. Linktrees whose slug is already
taken are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		return withStore(cmd.Context(), func(ctx context.Context, store *repository.Store) error {
			imported, skipped, err := importLinktrees(ctx, store.Linktrees, f)
			if err != nil {
				return err
			}
			logger.GetAppLogger().Infof("Imported %d linktrees, skipped %d", imported, skipped)
			return nil
		})
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the store connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, store *repository.Store) error {
			start := time.Now()
			if err := store.Health.Ping(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", store.Backend, time.Since(start).Round(time.Millisecond))
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Override DATABASE_URL")
	rootCmd.AddCommand(exportCmd, importCmd, pingCmd)
	exportCmd.Flags().StringVarP(&exportFile, "out", "o", "", "Write to a file instead of stdout")
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "JSON file to import")
	_ = importCmd.MarkFlagRequired("file")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.GetAppLogger().Error(err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, fn func(context.Context, *repository.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer store.Close()
	return fn(ctx, store)
}

func exportLinktrees(ctx context.Context, repo ports.LinktreeRepository, w io.Writer) (int, error) {
	trees, err := repo.Dump(ctx)
	if err != nil {
		return 0, err
	}
	if trees == nil {
		trees = []domain.Linktree{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return len(trees), enc.Encode(trees)
}

func importLinktrees(ctx context.Context, repo ports.LinktreeRepository, r io.Reader) (imported, skipped int, err error) {
	var trees []domain.Linktree
	if err := json.NewDecoder(r).Decode(&trees); err != nil {
		return 0, 0, fmt.Errorf("decode import file: %w", err)
	}

	for i := range trees {
		lt := &trees[i]
		if lt.ID == "" || !domain.ValidSlug(lt.Slug) {
			return imported, skipped, fmt.Errorf("record %d: id and a valid slug are required", i)
		}
		existing, err := repo.GetBySlug(ctx, lt.Slug)
		if err != nil {
			return imported, skipped, err
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := repo.Create(ctx, lt); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				skipped++
				continue
			}
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}
