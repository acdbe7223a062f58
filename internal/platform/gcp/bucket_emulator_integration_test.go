package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

func TestImageBucketEmulatorUpload(t *testing.T) {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SPIRIT_RUN_GCS_EMULATOR_INTEGRATION")), "true") {
		t.Skip("set SPIRIT_RUN_GCS_EMULATOR_INTEGRATION=true to run emulator integration tests")
	}

	emulatorHost := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST"))
	if emulatorHost == "" {
		emulatorHost = "http://127.0.0.1:4443"
	}
	emulatorHost = strings.TrimRight(emulatorHost, "/")
	if !isEmulatorReachable(t, emulatorHost) {
		t.Skipf("storage emulator not reachable at %s", emulatorHost)
	}

	bucketName := fmt.Sprintf("spirit-it-%d", time.Now().UnixNano())
	createBucketIfMissing(t, emulatorHost, bucketName)
	t.Setenv("STORAGE_EMULATOR_HOST", emulatorHost)

	log, err := logger.New("development", "info")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	defer log.Sync()

	ctx := context.Background()
	bucket, err := NewImageBucket(ctx, log, BucketConfig{
		Bucket:  bucketName,
		Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: emulatorHost},
	})
	if err != nil {
		t.Fatalf("NewImageBucket: %v", err)
	}
	defer bucket.Close()

	payload := []byte("\x89PNG\r\n\x1a\nnot-really-a-png")
	url, err := bucket.Upload(ctx, "it/wolf.png", payload, "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status: want=200 got=%d body=%s", resp.StatusCode, body)
	}
	if !bytes.Equal(body, payload) {
		t.Fatalf("download body mismatch: got=%q", body)
	}
}

func isEmulatorReachable(t *testing.T, emulatorHost string) bool {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(emulatorHost + "/storage/v1/b?project=local-dev")
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 500
}

func createBucketIfMissing(t *testing.T, emulatorHost string, bucket string) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"name": bucket})
	if err != nil {
		t.Fatalf("json.Marshal(bucket): %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodPost, emulatorHost+"/storage/v1/b?project=local-dev", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("http.NewRequest(create bucket): %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("create bucket %q: %v", bucket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusConflict {
		return
	}
	b, _ := io.ReadAll(resp.Body)
	t.Fatalf("create bucket %q failed: status=%d body=%s", bucket, resp.StatusCode, strings.TrimSpace(string(b)))
}
