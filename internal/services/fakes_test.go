package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
)

const validRichJSON = `{
  "spiritAnimal": {"animal": "River Otter", "rationale": "Playful, bonded and curious."},
  "artisticMedium": {"medium": "Soft watercolor washes", "description": "Flowing blues and teals."},
  "imagePrompt": "A river otter drifting through teal currents in soft watercolor, conceptual art"
}`

const validClassicJSON = `{
  "animal": "Red Fox",
  "animal_reasoning": "Clever and adaptable.",
  "medium": "Ukiyo-e",
  "medium_reasoning": "Bold lines for a bold mind.",
  "image_prompt": "A red fox in ukiyo-e style"
}`

type stubLLM struct {
	mu         sync.Mutex
	textCalls  int
	jsonCalls  int
	text       string
	textErr    error
	jsonAnswer []string
	jsonErr    error
	systems    []string
	users      []string
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textCalls++
	s.systems = append(s.systems, system)
	s.users = append(s.users, user)
	return s.text, s.textErr
}

// GenerateJSON replays jsonAnswer in order and repeats the last entry.
func (s *stubLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jsonCalls++
	s.systems = append(s.systems, system)
	s.users = append(s.users, user)
	if s.jsonErr != nil {
		return "", s.jsonErr
	}
	if len(s.jsonAnswer) == 0 {
		return "", nil
	}
	i := s.jsonCalls - 1
	if i >= len(s.jsonAnswer) {
		i = len(s.jsonAnswer) - 1
	}
	return s.jsonAnswer[i], nil
}

type stubBackend struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	out     GeneratedImage
	err     error
}

func (s *stubBackend) Generate(ctx context.Context, prompt string) (GeneratedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

type stubUploader struct {
	mu           sync.Mutex
	calls        int
	keys         []string
	contentTypes []string
	baseURL      string
	err          error
}

func (s *stubUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.keys = append(s.keys, key)
	s.contentTypes = append(s.contentTypes, contentType)
	if s.err != nil {
		return "", s.err
	}
	return s.baseURL + "/" + key, nil
}

type stubSocial struct {
	calls    int
	profiles []spirit.SocialProfile
}

func (s *stubSocial) FetchAll(ctx context.Context, handles []spirit.SocialHandle) []spirit.SocialProfile {
	s.calls++
	return s.profiles
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}
