package s3

import (
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
)

// TransferConfig tunes the S3 transfer manager used for file puts and
// fetches.
type TransferConfig struct {
	// PartSize is the part size for multipart transfers. Default: 8MB.
	PartSize int64

	// Concurrency is the number of concurrent part transfers.
	// Default: 5, the SDK default.
	Concurrency int

	// LeavePartsOnError keeps uploaded parts of a failed multipart upload
	// instead of aborting it. Default: false.
	LeavePartsOnError bool
}

// DefaultTransferConfig returns the default transfer settings.
func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		PartSize:          8 * 1024 * 1024,
		Concurrency:       5,
		LeavePartsOnError: false,
	}
}

// newUploader creates a configured S3 uploader.
func newUploader(client Client, cfg TransferConfig) *manager.Uploader {
	return manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
		u.Concurrency = cfg.Concurrency
		u.LeavePartsOnError = cfg.LeavePartsOnError
	})
}

// newDownloader creates a configured S3 downloader.
func newDownloader(client Client, cfg TransferConfig) *manager.Downloader {
	return manager.NewDownloader(client, func(d *manager.Downloader) {
		d.PartSize = cfg.PartSize
		d.Concurrency = cfg.Concurrency
	})
}
