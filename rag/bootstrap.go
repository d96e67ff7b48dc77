package rag

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureStore makes sure a vector store directory exists at storePath,
// downloading and extracting the archive at archiveURL when it does not.
// The archive is expected to contain the store directory itself, so it is
// extracted into storePath's parent. An existing directory is left alone.
func EnsureStore(ctx context.Context, storePath, archiveURL string) error {
	if info, err := os.Stat(storePath); err == nil && info.IsDir() {
		GlobalLogger.Debug("store directory already present", "path", storePath)
		return nil
	}

	if archiveURL == "" {
		return fmt.Errorf("store %s does not exist and no archive URL is configured", storePath)
	}

	GlobalLogger.Info("downloading store archive", "url", archiveURL)
	data, err := downloadArchive(ctx, archiveURL)
	if err != nil {
		return fmt.Errorf("failed to download store archive: %w", err)
	}

	dest := filepath.Dir(storePath)
	if err := extractZip(data, dest); err != nil {
		return fmt.Errorf("failed to extract store archive: %w", err)
	}

	if info, err := os.Stat(storePath); err != nil || !info.IsDir() {
		return fmt.Errorf("archive did not contain store directory %s", filepath.Base(storePath))
	}

	GlobalLogger.Info("store extracted", "path", storePath)
	return nil
}

func downloadArchive(ctx context.Context, archiveURL string) ([]byte, error) {
	client := &http.Client{Timeout: 5 * time.Minute}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// extractZip unpacks a zip archive into dest. Entries that would escape
// dest are rejected.
func extractZip(data []byte, dest string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	for _, f := range r.File {
		target := filepath.Join(destAbs, f.Name)
		if !strings.HasPrefix(target, destAbs+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := writeZipFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
