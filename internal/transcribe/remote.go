package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"althingi-pipeline/internal/logger"
)

var httpClient = &http.Client{Timeout: 12 * time.Second}

type PublishResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		MediaId          string `json:"MediaId"`
		Status           string `json:"Status"`
		TranscriptionURL string `json:"TranscriptionURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

type StatusResponse struct {
	Code   int    `json:"Code"`
	Status string `json:"Status"`
	Data   struct {
		Status               string `json:"Status"` // Success, Queued, Processing, Failed
		TranscriptionTextURL string `json:"TranscriptionTextURL"`
	} `json:"Data"`
	Reason string `json:"Reason,omitempty"`
}

// Remote submits clips to a transcription host and polls until the text is
// ready.
type Remote struct {
	Host     string
	Language string
}

func NewRemote(host, language string) *Remote {
	return &Remote{Host: host, Language: language}
}

func (r *Remote) Transcribe(ctx context.Context, wavPath string) (string, error) {
	log := logger.New().WithField("module", "transcribe")
	if r.Host == "" {
		return "", fmt.Errorf("transcription host not configured")
	}
	mediaID, existingURL, err := r.publish(ctx, wavPath)
	if err != nil {
		return "", err
	}
	if existingURL != "" {
		return download(ctx, existingURL)
	}
	finalURL, err := r.poll(ctx, mediaID)
	if err != nil {
		return "", err
	}
	log.WithField("final_url", finalURL).Info("download final transcript")
	return download(ctx, finalURL)
}

func (r *Remote) publish(ctx context.Context, wavPath string) (string, string, error) {
	endpoint := strings.TrimRight(r.Host, "/") + "/transcribe"

	f, err := os.Open(wavPath)
	if err != nil {
		return "", "", fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", "", fmt.Errorf("read clip: %w", err)
	}
	w.WriteField("language", r.Language)
	_ = w.Close()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &b)
	req.Header.Set("Content-Type", w.FormDataContentType())
	var resp PublishResponse
	if err := doJSON(req, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.ToLower(resp.Data.Status) == "success" {
		return "", resp.Data.TranscriptionURL, nil
	}
	return resp.Data.MediaId, "", nil
}

func (r *Remote) poll(ctx context.Context, mediaID string) (string, error) {
	base := strings.TrimRight(r.Host, "/") + "/getstatus"
	for i := 0; i < 40; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(1500 * time.Millisecond):
		}
		u, _ := url.Parse(base)
		q := u.Query()
		q.Set("mediaId", mediaID)
		u.RawQuery = q.Encode()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		var s StatusResponse
		if err := doJSON(req, &s); err != nil {
			continue
		}
		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout")
}

func download(ctx context.Context, textURL string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, textURL, nil)
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("download failed: %s", string(b))
	}
	b, _ := io.ReadAll(resp.Body)
	return string(b), nil
}

func doJSON(req *http.Request, target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 12 * time.Second
	var lastErr error
	op := func() error {
		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", string(body))
			return lastErr
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		if err := json.Unmarshal(body, target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		return nil
	}
	if err := backoff.Retry(op, bo); err != nil {
		return lastErr
	}
	return nil
}
