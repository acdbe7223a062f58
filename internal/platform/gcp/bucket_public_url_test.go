package gcp

import (
	"context"
	"strings"
	"testing"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

func TestResolvePublicBaseURL(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		storage    ObjectStorageConfig
		wantBase   string
		wantSource string
		wantErr    bool
	}{
		{name: "gcs default", storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}, wantSource: "gcs_default"},
		{
			name:       "emulator fallback",
			storage:    ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
			wantBase:   "http://fake-gcs:4443",
			wantSource: "storage_emulator_host",
		},
		{
			name:       "override",
			raw:        "http://localhost:4443/",
			storage:    ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"},
			wantBase:   "http://localhost:4443",
			wantSource: "image_host_public_base_url",
		},
		{name: "invalid override", raw: "localhost:4443", storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base, source, err := resolvePublicBaseURL(tc.raw, tc.storage)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolvePublicBaseURL: %v", err)
			}
			if base != tc.wantBase || source != tc.wantSource {
				t.Fatalf("want=(%q,%q) got=(%q,%q)", tc.wantBase, tc.wantSource, base, source)
			}
		})
	}
}

func TestGetPublicURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  BucketConfig
		base string
		key  string
		want string
	}{
		{
			name: "gcs default",
			cfg:  BucketConfig{Bucket: "spirit-images", Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}},
			key:  "spirit/2026/10/abc.png",
			want: "https://storage.googleapis.com/spirit-images/spirit/2026/10/abc.png",
		},
		{
			name: "cdn domain",
			cfg:  BucketConfig{Bucket: "spirit-images", CDNDomain: "cdn.example.com", Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}},
			key:  "/spirit/abc.png",
			want: "https://cdn.example.com/spirit/abc.png",
		},
		{
			name: "public base url",
			cfg:  BucketConfig{Bucket: "spirit-images", Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}},
			base: "http://localhost:4443",
			key:  "spirit/abc.png",
			want: "http://localhost:4443/spirit-images/spirit/abc.png",
		},
		{
			name: "emulator media endpoint",
			cfg:  BucketConfig{Bucket: "spirit-images", Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCSEmulator, EmulatorHost: "http://fake-gcs:4443"}},
			key:  "spirit/abc.png",
			want: "http://fake-gcs:4443/storage/v1/b/spirit-images/o/spirit%2Fabc.png?alt=media",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newImageBucket(tc.cfg, tc.base)
			if got := b.GetPublicURL(tc.key); got != tc.want {
				t.Fatalf("GetPublicURL: want=%q got=%q", tc.want, got)
			}
		})
	}
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a/b.png":       "image/png",
		"a/b.JPG":       "image/jpeg",
		"a/b.webp?v=1":  "image/webp",
		"a/b.gif":       "image/gif",
		"a/b.unknown":   "application/octet-stream",
	}
	for key, want := range cases {
		if got := contentTypeForKey(key); got != want {
			t.Fatalf("contentTypeForKey(%q): want=%q got=%q", key, want, got)
		}
	}
}

func TestNewImageBucketRequiresBucket(t *testing.T) {
	_, err := NewImageBucket(context.Background(), nil, BucketConfig{Storage: ObjectStorageConfig{Mode: ObjectStorageModeGCS}})
	if apierr.KindOf(err) != apierr.KindConfiguration {
		t.Fatalf("kind: want=%q got=%q", apierr.KindConfiguration, apierr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "IMAGE_HOST_BUCKET") {
		t.Fatalf("error should name the variable: %v", err)
	}
}
