package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServeMuxExposesServiceRegistry(t *testing.T) {
	reg := InitRegistry()
	ObserveSurvey("submitted")

	rr := httptest.NewRecorder()
	serveMux(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `peer_review_survey_events_total{event="submitted"}`) {
		t.Fatalf("metrics listener missing survey series:\n%s", body)
	}
}

func TestServeDisabledWithoutAddr(t *testing.T) {
	Serve("", InitRegistry()) // returns immediately, no listener
}
