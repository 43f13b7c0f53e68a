// Package download fetches special-project documents to local storage with
// idempotent skip-if-exists semantics.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/saferoute/sheetfetch/internal/api"
	"github.com/saferoute/sheetfetch/internal/logging"
)

// chunkSize is the fixed read size for streaming a document body to disk.
const chunkSize = 1024

// Downloader writes special-project documents into one output directory.
// Safe for concurrent use: distinct deduplicated project UUIDs resolve to
// distinct filenames, so writers never share a destination.
type Downloader struct {
	api    *api.Client
	dir    string
	logger *logging.Logger
}

// New creates a Downloader for one account's API client.
func New(client *api.Client, dir string, logger *logging.Logger) *Downloader {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Downloader{api: client, dir: dir, logger: logger}
}

// Fetch downloads the document behind one special project:
//
//  1. the download description resolves the docstore UUID,
//  2. the docstore response supplies the filename (Content-Disposition)
//     and the file bytes.
//
// Expected absences — no filename, file already on disk — come back as
// statuses, not errors. Transport and parse failures are folded into the
// outcome so one bad document never aborts its siblings.
func (d *Downloader) Fetch(ctx context.Context, projectUUID string) Outcome {
	storeUUID, err := d.api.StoreUUID(ctx, projectUUID)
	if err != nil {
		return d.failure(projectUUID, err)
	}

	resp, cancel, err := d.api.OpenStore(ctx, storeUUID)
	if err != nil {
		return d.failure(projectUUID, err)
	}
	defer cancel()
	defer resp.Body.Close()

	filename, ok := FilenameFromHeader(resp.Header.Get("Content-Disposition"))
	if !ok {
		d.logger.Debug().
			Str("project_uuid", projectUUID).
			Str("store_uuid", storeUUID).
			Msg("no filename in docstore response, skipping")
		return Outcome{Status: SkippedNoFilename, ProjectUUID: projectUUID}
	}

	destPath := filepath.Join(d.dir, filename)
	if _, err := os.Stat(destPath); err == nil {
		d.logger.Info().
			Str("file", filename).
			Msg("file already exists, skipping download")
		return Outcome{Status: AlreadyExists, ProjectUUID: projectUUID, Filename: filename}
	}

	if err := d.writeFile(destPath, resp.Body); err != nil {
		return d.failure(projectUUID, err)
	}

	d.logger.Info().
		Str("file", filename).
		Str("project_uuid", projectUUID).
		Msg("downloaded")
	return Outcome{Status: Downloaded, ProjectUUID: projectUUID, Filename: filename}
}

// writeFile streams body to destPath in fixed-size chunks through a temp
// file, so an interrupted run never leaves a half-written file under the
// final name.
func (d *Downloader) writeFile(destPath string, body io.Reader) error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpPath := destPath + ".part"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	if _, err := io.CopyBuffer(f, body, make([]byte, chunkSize)); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize %s: %w", destPath, err)
	}
	return nil
}

func (d *Downloader) failure(projectUUID string, err error) Outcome {
	status := TransportError
	if errors.Is(err, api.ErrMalformedResponse) {
		status = ParseError
	}
	d.logger.Warn().
		Str("project_uuid", projectUUID).
		Str("kind", status.String()).
		Err(err).
		Msg("download failed")
	return Outcome{Status: status, ProjectUUID: projectUUID, Err: err}
}
