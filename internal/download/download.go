package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{Timeout: 0} // long downloads, no global deadline

// Fetch downloads url to dest with byte-range resume. A partial file on disk
// is continued from its current size; a dest whose size already matches the
// server's content length is skipped. Transient failures are retried with
// exponential backoff until the policy gives up.
func Fetch(ctx context.Context, url, dest string, lg *logrus.Entry) error {
	total, err := remoteSize(ctx, url)
	if err != nil {
		return fmt.Errorf("head %s: %w", url, err)
	}

	if fi, err := os.Stat(dest); err == nil && total > 0 && fi.Size() == total {
		lg.WithField("dest", dest).Info("already downloaded, skipping")
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Minute
	op := func() error {
		return fetchRange(ctx, url, dest, total, lg)
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

func remoteSize(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}
	return strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
}

func fetchRange(ctx context.Context, url, dest string, total int64, lg *logrus.Entry) error {
	var have int64
	if fi, err := os.Stat(dest); err == nil {
		have = fi.Size()
	}
	if total > 0 && have >= total {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	if have > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", have))
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable:
		// Server says there is nothing past our offset: done.
		return nil
	case resp.StatusCode == http.StatusOK && have > 0:
		// Server ignored the range, start over.
		have = 0
	case resp.StatusCode >= 300:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if have == 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return backoff.Permanent(err)
	}
	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	have += n

	lg.WithFields(logrus.Fields{
		"dest":  dest,
		"bytes": have,
		"total": total,
	}).Info("download progress")

	if copyErr != nil {
		return copyErr
	}
	if closeErr != nil {
		return closeErr
	}
	if total > 0 && have < total {
		return fmt.Errorf("incomplete: %d of %d bytes", have, total)
	}
	return nil
}
