package inventory

import (
	"archive/zip"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Archive zips each series' files into destDir, one archive named
// after the SeriesInstanceUID, and records the archive's MD5 on the
// series so the inventory row can carry it.
func (s *Scanner) Archive(series []SeriesInfo, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for i := range series {
		si := &series[i]
		if si.SeriesInstanceUID == "" || len(si.Files) == 0 {
			continue
		}
		path := filepath.Join(destDir, si.SeriesInstanceUID+".zip")
		if err := zipFiles(path, si.Files); err != nil {
			return fmt.Errorf("archiving series %s: %w", si.SeriesInstanceUID, err)
		}
		sum, err := fileMD5(path)
		if err != nil {
			return fmt.Errorf("hashing %s: %w", path, err)
		}
		si.ZipMD5 = sum
		s.logger.Info().
			Str("series", si.SeriesInstanceUID).
			Str("archive", path).
			Str("md5", sum).
			Msg("archived series")
	}
	return nil
}

func zipFiles(path string, files []string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, f := range files {
		if err := addToZip(zw, f); err != nil {
			zw.Close()
			out.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func addToZip(zw *zip.Writer, file string) error {
	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()
	w, err := zw.Create(filepath.Base(file))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
