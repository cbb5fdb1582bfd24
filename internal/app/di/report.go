package di

import (
	"context"
	"log/slog"

	"crud_backend/internal/app/config"
	"crud_backend/internal/platform/report"
)

// NewReportArchive returns the archive selected by REPORT_ARCHIVE, or nil when
// generated reports are not kept.
func NewReportArchive(ctx context.Context, cfg config.Config) (report.Archive, error) {
	switch cfg.ReportArchive {
	case config.ArchiveDir:
		a, err := report.NewDirArchive(cfg.ReportDir)
		if err != nil {
			return nil, err
		}
		slog.Info("archiving reports to directory", "dir", cfg.ReportDir)
		return a, nil
	case config.ArchiveS3:
		client, err := report.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		slog.Info("archiving reports to S3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return report.NewS3Archive(client, cfg.S3Bucket, cfg.S3Prefix), nil
	}
	return nil, nil
}
