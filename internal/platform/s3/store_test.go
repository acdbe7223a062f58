package s3

import (
	"testing"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
)

func TestNewRequiresConfig(t *testing.T) {
	cases := []struct {
		name     string
		cfg      Config
		wantCode string
	}{
		{name: "missing endpoint", cfg: Config{AccessKey: "a", SecretKey: "b", Bucket: "c"}, wantCode: "image_host_s3_missing_endpoint"},
		{name: "missing credentials", cfg: Config{Endpoint: "localhost:9000", Bucket: "c"}, wantCode: "image_host_s3_missing_credentials"},
		{name: "missing bucket", cfg: Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}, wantCode: "image_host_missing_bucket"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(nil, tc.cfg)
			if apierr.KindOf(err) != apierr.KindConfiguration {
				t.Fatalf("kind: want=%q got=%q", apierr.KindConfiguration, apierr.KindOf(err))
			}
			if got := apierr.CodeOf(err); got != tc.wantCode {
				t.Fatalf("code: want=%q got=%q", tc.wantCode, got)
			}
		})
	}
}

func TestNewBuildsClient(t *testing.T) {
	s, err := New(nil, Config{Endpoint: "localhost:9000", AccessKey: "minio", SecretKey: "minio123", Bucket: "spirit"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.region != "us-east-1" {
		t.Fatalf("region: want=%q got=%q", "us-east-1", s.region)
	}
	if s.PublicURL("a.png") != "" {
		t.Fatalf("PublicURL should be empty without a base url")
	}
}

func TestPublicURL(t *testing.T) {
	s := newStore(Config{Bucket: "spirit", PublicBaseURL: "http://localhost:9000/"})
	want := "http://localhost:9000/spirit/spirit/2026/abc.png"
	if got := s.PublicURL("/spirit/2026/abc.png"); got != want {
		t.Fatalf("PublicURL: want=%q got=%q", want, got)
	}
}
