package article

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/model"
)

const testPage = `<!DOCTYPE html>
<html>
<head><title>Test</title><style>.x{color:red}</style><script>alert(1)</script></head>
<body>
<nav>Home | About | Contact</nav>
<header>Site Header</header>
<article>
<h1>Startling discovery</h1>
<p>Researchers announced that the Arctic lost a measurable fraction of its summer ice extent between 1980 and 2020, a change attributed primarily to rising global temperatures according to the published analysis.</p>
<p>The authors further claim the trend is accelerating and expect ice-free summers within decades if emissions continue at the current pace.</p>
</article>
<aside>Related stories</aside>
<footer>Copyright</footer>
</body>
</html>`

func testConfig(checkRobots bool) model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "SciCheck/1.0 (+https://example.org)",
		MaxBodyBytes: 1 << 20,
		CheckRobots:  checkRobots,
	}
}

func TestExtractTextSkipsChrome(t *testing.T) {
	text, err := ExtractText(testPage)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	for _, banned := range []string{"alert(1)", "color:red", "Home | About", "Site Header", "Related stories", "Copyright"} {
		if strings.Contains(text, banned) {
			t.Errorf("Expected %q to be stripped, text: %q", banned, text)
		}
	}
	if !strings.Contains(text, "Startling discovery") {
		t.Error("Expected heading text to survive")
	}
	if !strings.Contains(text, "rising global temperatures") {
		t.Error("Expected paragraph text to survive")
	}
}

func TestExtractTextBlockSeparation(t *testing.T) {
	text, err := ExtractText("<p>First paragraph.</p><p>Second paragraph.</p>")
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(text, "First paragraph.\n") {
		t.Errorf("Expected newline between blocks, got %q", text)
	}
}

func TestFetchText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false), nil)
	text, err := f.FetchText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchText failed: %v", err)
	}
	if !strings.Contains(text, "Arctic") {
		t.Errorf("Expected article text, got %q", text)
	}
	if !strings.HasPrefix(gotUA, "SciCheck/1.0") {
		t.Errorf("Expected identifying User-Agent, got %q", gotUA)
	}
}

func TestFetchTextRejectsThinPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false), nil)
	if _, err := f.FetchText(context.Background(), srv.URL); err == nil {
		t.Error("Expected error for thin page")
	}
}

func TestFetchTextRobotsDisallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/"))
			return
		}
		w.Write([]byte(testPage))
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(true), nil)
	if _, err := f.FetchText(context.Background(), srv.URL+"/private/page"); !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if _, err := f.FetchText(context.Background(), srv.URL+"/public/page"); err != nil {
		t.Errorf("Expected allowed path to fetch, got %v", err)
	}
}

func TestFetchTextInvalidURL(t *testing.T) {
	f := NewFetcher(testConfig(false), nil)
	for _, raw := range []string{"ftp://example.org/x", "not a url", "javascript:alert(1)"} {
		if _, err := f.FetchText(context.Background(), raw); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestFetchTextServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(false), nil)
	if _, err := f.FetchText(context.Background(), srv.URL); err == nil {
		t.Error("Expected error for 503 response")
	}
}
