package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/veridian-labs/veridian/internal/audit"
	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/cli"
	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/config"
	"github.com/veridian-labs/veridian/internal/sheets"
)

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and verify the audit chain",
	}

	cmd.AddCommand(auditVerifyCmd())
	cmd.AddCommand(auditListCmd())
	cmd.AddCommand(auditExportCmd())

	return cmd
}

func auditVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify audit chain integrity",
		Long: `Recompute every record hash in the requested range and confirm each
stored previous-hash matches the actual hash of its predecessor. Reports the
first broken sequence number on tampering.`,
		RunE: runAuditVerify,
	}

	cmd.Flags().Int64("from", -1, "first sequence number to verify")
	cmd.Flags().Int64("to", -1, "last sequence number to verify")

	return cmd
}

func runAuditVerify(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetInt64("from")
	to, _ := cmd.Flags().GetInt64("to")

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

	log, err := audit.NewLog(ctx, store, canonical.SHA256Hasher{})
	if err != nil {
		return err
	}

	if from >= 0 && to >= 0 {
		err = log.VerifyRange(ctx, from, to)
	} else {
		err = log.Verify(ctx)
	}

	if err != nil {
		var integrityErr *common.IntegrityError
		if errors.As(err, &integrityErr) {
			fmt.Println(cli.MatchStyle.Render(fmt.Sprintf("Chain verification FAILED at seq %d", integrityErr.Seq)))
		}
		return err
	}

	count, err := log.Len(ctx)
	if err != nil {
		return err
	}
	fmt.Println(cli.ClearStyle.Render(fmt.Sprintf("Chain verified: %d records intact", count)))
	return nil
}

func auditListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit chain records",
		RunE:  runAuditList,
	}

	cmd.Flags().Int64("from", 0, "first sequence number")
	cmd.Flags().Int64("to", -1, "last sequence number (default: tail)")

	return cmd
}

func runAuditList(cmd *cobra.Command, _ []string) error {
	from, _ := cmd.Flags().GetInt64("from")
	to, _ := cmd.Flags().GetInt64("to")

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

	if to < 0 {
		count, err := store.CountAuditRecords(ctx)
		if err != nil {
			return err
		}
		to = count - 1
	}
	if to < from {
		fmt.Println(cli.SubtleStyle.Render("Audit chain is empty."))
		return nil
	}

	records, err := store.GetAuditRecords(ctx, from, to)
	if err != nil {
		return err
	}

	for _, record := range records {
		fmt.Printf("%6d  %s  %-14s  %.2f  cluster=%s\n",
			record.Seq,
			record.Verdict.Timestamp.Format("2006-01-02 15:04:05"),
			cli.OutcomeStyle(record.Verdict.Outcome).Render(string(record.Verdict.Outcome)),
			record.Verdict.TopScore,
			record.Verdict.ClusterID)
	}
	return nil
}

func auditExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit chain to a Google Sheets report",
		RunE:  runAuditExport,
	}

	cmd.Flags().String("title", "Veridian Audit Report", "spreadsheet title")

	return cmd
}

func runAuditExport(cmd *cobra.Command, _ []string) error {
	title, _ := cmd.Flags().GetString("title")

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

	count, err := store.CountAuditRecords(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println(cli.SubtleStyle.Render("Audit chain is empty; nothing to export."))
		return nil
	}

	records, err := store.GetAuditRecords(ctx, 0, count-1)
	if err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, sheets.Config{
		ClientID:        viper.GetString("sheets.client_id"),
		ClientSecret:    viper.GetString("sheets.client_secret"),
		TokenFile:       config.ExpandPath(viper.GetString("sheets.token_file")),
		SpreadsheetName: title,
	})
	if err != nil {
		return err
	}

	url, err := writer.ExportAuditReport(ctx, records)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d records to %s\n", len(records), url)
	return nil
}
