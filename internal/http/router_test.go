package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/spiritanimal-backend/internal/http/handlers"
	httpMW "github.com/yungbote/spiritanimal-backend/internal/http/middleware"
	"github.com/yungbote/spiritanimal-backend/internal/http/response"
)

func TestRouterServesHealthAndRejectsLargeBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{
		MaxBodyBytes:  32,
		HealthHandler: httpH.NewHealthHandler(httpH.CredentialStatus{}, "openai"),
		SpiritHandler: httpH.NewSpiritHandler(nil, nil),
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("health status: want=200 got=%d", rr.Code)
	}

	body := `{"personality_summary":"` + strings.Repeat("x", 100) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v2/spirit-animal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("large body status: want=400 got=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "request_too_large") {
		t.Fatalf("large body: got=%s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route: want=404 got=%d", rr.Code)
	}
}

func TestRouterErrorEnvelopeCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{
		MaxBodyBytes:  1024,
		HealthHandler: httpH.NewHealthHandler(httpH.CredentialStatus{}, "openai"),
		SpiritHandler: httpH.NewSpiritHandler(nil, nil),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v2/spirit-animal", strings.NewReader(`{"personality_summary":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(httpMW.HeaderRequestID, "req-789")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env response.ErrorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, rr.Body.String())
	}
	if env.Error.Code != "invalid_json" {
		t.Fatalf("code: want=%q got=%q", "invalid_json", env.Error.Code)
	}
	if env.Error.RequestID != "req-789" || rr.Header().Get(httpMW.HeaderRequestID) != "req-789" {
		t.Fatalf("request id: want=%q envelope=%q header=%q", "req-789", env.Error.RequestID, rr.Header().Get(httpMW.HeaderRequestID))
	}
}
