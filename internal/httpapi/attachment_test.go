package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestOutputFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "config.yaml", false},
		{"  ", "config.yaml", false},
		{"home", "home.yaml", false},
		{"home.yml", "home.yml", false},
		{"我的配置", "我的配置.yaml", false},
		{".hidden", ".hidden.yaml", false},
		{"a/b", "", true},
		{`a\b`, "", true},
		{"a\nb", "", true},
		{strings.Repeat("x", 201), "", true},
	}
	for _, tt := range tests {
		got, err := outputFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("outputFileName(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("outputFileName(%q) unexpected err: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("outputFileName(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentDisposition_UTF8(t *testing.T) {
	got := contentDispositionAttachment(`my "cfg".yaml`)
	want := `attachment; filename="my \"cfg\".yaml"; filename*=UTF-8''my%20%22cfg%22.yaml`
	if got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
}

func TestFileName_ContentDisposition(t *testing.T) {
	up := newUpstream(t)
	mux := NewMux()

	req := httptest.NewRequest(http.MethodGet, "/override?fileName=home&config="+url.QueryEscape(up.URL+"/base.yaml"), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="home.yaml"`) {
		t.Fatalf("Content-Disposition=%q, want contains filename", cd)
	}
}

func TestFileName_Default(t *testing.T) {
	up := newUpstream(t)
	mux := NewMux()

	req := httptest.NewRequest(http.MethodGet, "/override?config="+url.QueryEscape(up.URL+"/base.yaml"), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	cd := rr.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="config.yaml"`) {
		t.Fatalf("Content-Disposition=%q, want contains filename", cd)
	}
}

func TestFileName_InvalidRejectedBeforeFetch(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	mux := NewMux()
	req := httptest.NewRequest(http.MethodGet, "/override?fileName="+url.QueryEscape("../x")+"&config="+url.QueryEscape(ts.URL), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if hits != 0 {
		t.Fatalf("upstream hits=%d, want=0", hits)
	}
}
