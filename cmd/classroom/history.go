package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"classroom_fetcher/internal/domain"
	"classroom_fetcher/internal/storage/postgres"
)

type batchReader interface {
	Get(ctx context.Context, id string) (*domain.Batch, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Batch, error)
}

type jobReader interface {
	ListByBatch(ctx context.Context, batchID string) ([]postgres.JobRecord, error)
}

// showHistory prints the newest batches, or the jobs of one batch when
// batchID is set.
func showHistory(ctx context.Context, out io.Writer, batches batchReader, jobs jobReader, batchID string, limit int) error {
	if batchID == "" {
		recent, err := batches.ListRecent(ctx, limit)
		if err != nil {
			return err
		}
		printBatches(out, recent)
		return nil
	}

	batch, err := batches.Get(ctx, batchID)
	if err != nil {
		return err
	}
	records, err := jobs.ListByBatch(ctx, batchID)
	if err != nil {
		return err
	}
	printBatches(out, []domain.Batch{*batch})
	fmt.Fprintln(out)
	printJobs(out, records)
	return nil
}

func printBatches(out io.Writer, batches []domain.Batch) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "BATCH\tKIND\tFORMAT\tREQUESTED\tSUCCEEDED\tFAILED\tCREATED\n")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID, b.Kind, formatLabel(b.Format), b.Requested, b.Succeeded, b.Failed,
			b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}

func printJobs(out io.Writer, records []postgres.JobRecord) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "JOB\tSUB ID\tCOURSE ID\tSESSION\n")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.ID, r.SubID, r.CourseID, r.SubName)
	}
	_ = tw.Flush()
}

func formatLabel(format string) string {
	if format == "" {
		return "-"
	}
	return domain.SubtitleFormat(format).Label()
}

// formatUsage lists every subtitle format for the -format flag help.
func formatUsage() string {
	parts := make([]string, 0, len(domain.SubtitleFormats()))
	for _, f := range domain.SubtitleFormats() {
		parts = append(parts, fmt.Sprintf("%s = %s", f, f.Label()))
	}
	return "subtitle format (default from config): " + strings.Join(parts, ", ")
}
