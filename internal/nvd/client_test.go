package nvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyPage = `{"resultsPerPage": 0, "startIndex": 0, "totalResults": 0, "vulnerabilities": []}`

func TestFetchPageSendsParamsAndKey(t *testing.T) {
	var gotQuery map[string][]string
	var gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotKey = r.Header.Get("apiKey")
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", 2000)
	window := &Window{
		Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 10, 12, 30, 0, 0, time.UTC),
	}

	_, err := c.FetchPage(context.Background(), 4000, window)
	require.NoError(t, err)

	assert.Equal(t, "secret-key", gotKey)
	assert.Equal(t, []string{"4000"}, gotQuery["startIndex"])
	assert.Equal(t, []string{"2000"}, gotQuery["resultsPerPage"])
	assert.Equal(t, []string{"2024-06-01T00:00:00.000Z"}, gotQuery["lastModStartDate"])
	assert.Equal(t, []string{"2024-06-10T12:30:00.000Z"}, gotQuery["lastModEndDate"])
}

func TestFetchPageOmitsWindowAndKeyWhenUnset(t *testing.T) {
	var gotQuery map[string][]string
	var hasKey bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, hasKey = r.Header[http.CanonicalHeaderKey("apiKey")]
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 50)
	_, err := c.FetchPage(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.False(t, hasKey, "no apiKey header without a configured key")
	assert.NotContains(t, gotQuery, "lastModStartDate")
	assert.NotContains(t, gotQuery, "lastModEndDate")
}

func TestFetchPageRetriesTransientFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"resultsPerPage": 1, "startIndex": 0, "totalResults": 1, "vulnerabilities": [{"cve": {"id": "CVE-2024-1"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2000)
	page, err := c.FetchPage(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, calls, "5xx responses are retried until one succeeds")
	require.Len(t, page.Vulnerabilities, 1)
	assert.Equal(t, 1, page.TotalResults)
}

func TestFetchPageRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2000)
	_, err := c.FetchPage(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchPageClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2000)
	_, err := c.FetchPage(context.Background(), 0, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "4xx responses fail immediately without retry")
	assert.Contains(t, err.Error(), "404")
}

func TestFetchPageBadJSONNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 2000)
	_, err := c.FetchPage(context.Background(), 0, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
