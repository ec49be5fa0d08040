package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/veridian-labs/veridian/internal/cli"
	"github.com/veridian-labs/veridian/internal/model"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a single identity record",
		Long: `Run one identity record through the full compliance pipeline:
canonicalize, resolve against known entities, screen against the configured
watchlist, and chain the verdict into the audit log.`,
		RunE: runVerify,
	}

	cmd.Flags().String("name", "", "full name (required)")
	cmd.Flags().String("dob", "", "date of birth (ISO date)")
	cmd.Flags().String("nationality", "", "ISO country code")
	cmd.Flags().String("document-type", "", "identity document type")
	cmd.Flags().String("document-number", "", "identity document number")
	cmd.Flags().StringToString("attr", nil, "additional attributes as key=value")
	cmd.Flags().Bool("review", false, "interactively review possible matches")
	_ = cmd.MarkFlagRequired("name")

	cmd.AddCommand(verifyBatchCmd())

	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	dob, _ := cmd.Flags().GetString("dob")
	nationality, _ := cmd.Flags().GetString("nationality")
	docType, _ := cmd.Flags().GetString("document-type")
	docNumber, _ := cmd.Flags().GetString("document-number")
	attrs, _ := cmd.Flags().GetStringToString("attr")
	review, _ := cmd.Flags().GetBool("review")

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	provider, err := initWatchlist(ctx, cfg, store)
	if err != nil {
		return err
	}

	verifier, err := buildVerifier(ctx, cfg, store, provider)
	if err != nil {
		return err
	}

	verdict, err := verifier.VerifyIdentity(ctx, model.IdentityRecord{
		Name:           name,
		DateOfBirth:    dob,
		Nationality:    nationality,
		DocumentType:   docType,
		DocumentNumber: docNumber,
		Attributes:     attrs,
	})
	if err != nil {
		return err
	}

	printVerdict(verdict)

	if review && verdict.Outcome == model.OutcomePossibleMatch {
		result, ok := verifier.ScreenCluster(verdict.ClusterID)
		if !ok {
			return fmt.Errorf("cluster %s not found for review", verdict.ClusterID)
		}
		decision, err := cli.NewReviewer(nil, nil).Review(ctx, verdict, result)
		if err != nil {
			return err
		}
		slog.Info("Review recorded", "cluster_id", verdict.ClusterID, "decision", decision)
	}

	return nil
}

func verifyBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Verify a batch of identity records from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerifyBatch,
	}

	cmd.Flags().Int("workers", 4, "number of concurrent verification workers")

	return cmd
}

func runVerifyBatch(cmd *cobra.Command, args []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	if workers < 1 {
		workers = 1
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var records []model.IdentityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(records) == 0 {
		slog.Info("No records to verify")
		return nil
	}

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	provider, err := initWatchlist(ctx, cfg, store)
	if err != nil {
		return err
	}

	verifier, err := buildVerifier(ctx, cfg, store, provider)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(records)), "verifying")

	var mu sync.Mutex
	counts := make(map[model.ScreeningOutcome]int)
	var failures []error

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i := range records {
		record := records[i]
		group.Go(func() error {
			verdict, err := verifier.VerifyIdentity(groupCtx, record)
			_ = bar.Add(1)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Per-record failures are collected, not fatal to
				// the batch; the caller can retry them safely.
				failures = append(failures, fmt.Errorf("record %q: %w", record.Name, err))
				return nil
			}
			counts[verdict.Outcome]++
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Printf("\n%s\n", cli.TitleStyle.Render("Batch complete"))
	fmt.Printf("  %s %d\n", cli.ClearStyle.Render("CLEAR:"), counts[model.OutcomeClear])
	fmt.Printf("  %s %d\n", cli.PossibleStyle.Render("POSSIBLE_MATCH:"), counts[model.OutcomePossibleMatch])
	fmt.Printf("  %s %d\n", cli.MatchStyle.Render("MATCH:"), counts[model.OutcomeMatch])

	if len(failures) > 0 {
		messages := make([]string, len(failures))
		for i, failure := range failures {
			messages[i] = failure.Error()
		}
		return fmt.Errorf("%d of %d records failed:\n  %s",
			len(failures), len(records), strings.Join(messages, "\n  "))
	}
	return nil
}

func printVerdict(verdict model.Verdict) {
	fmt.Println(cli.TitleStyle.Render("Verdict"))
	fmt.Printf("  Outcome:        %s\n", cli.OutcomeStyle(verdict.Outcome).Render(string(verdict.Outcome)))
	fmt.Printf("  Cluster:        %s\n", verdict.ClusterID)
	fmt.Printf("  Canonical hash: %s\n", verdict.CanonicalHash)
	if verdict.Outcome != model.OutcomeClear {
		fmt.Printf("  Top score:      %.2f\n", verdict.TopScore)
		fmt.Printf("  Matched entry:  %s\n", verdict.MatchedEntryID)
	}
	fmt.Printf("  Timestamp:      %s\n", cli.SubtleStyle.Render(verdict.Timestamp.Format("2006-01-02 15:04:05 MST")))
}
