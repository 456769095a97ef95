package zsdl_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Content served for the derived link, 100 bytes.
var fileContent = []byte(strings.Repeat("0123456789", 10))

// A page the way the storage hosts render it: the real link is assigned by
// an inline script, 42^3 + "asdasd".substr(0, 3).length = 74091.
const pageHTML = `<!DOCTYPE html>
<html>
<head><title>file.ext</title></head>
<body>
<a id="dlbutton">DOWNLOAD</a>
<script type="text/javascript">
    var a = 42;
    document.getElementById('dlbutton').omg = "asdasd".substr(0, 3);
    var b = document.getElementById('dlbutton').omg.length;
    document.getElementById('dlbutton').href = "/d/uN1qu3/"+(Math.pow(a, 3)+b)+"/file.ext";
</script>
</body>
</html>`

const (
	pagePath  = "/v/uN1qu3/file.ext"
	filePath  = "/d/uN1qu3/74091/file.ext"
	stallPath = "/d/uN1qu3/74091/stall.ext"
)

// storageHost fakes the storage site: one page URL and one file URL with
// range support. Requests and their Range headers are recorded.
type storageHost struct {
	mu       sync.Mutex
	hits     int
	ranges   []string
	content  []byte
	modtime  time.Time
	truncate int
}

func newStorageHost() (*storageHost, *httptest.Server) {

	h := &storageHost{content: fileContent}

	return h, httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		h.mu.Lock()
		h.hits++
		h.mu.Unlock()

		switch r.URL.Path {

		case pagePath:
			fmt.Fprint(w, pageHTML)

		case filePath:

			h.mu.Lock()
			h.ranges = append(h.ranges, r.Header.Get("Range"))
			truncate := h.truncate
			modtime := h.modtime
			h.mu.Unlock()

			// Declare the full length but write less, the connection is
			// cut short and the client sees a truncated body.
			if truncate > 0 {
				w.Header().Set("Content-Length", strconv.Itoa(len(h.content)))
				w.WriteHeader(http.StatusOK)
				w.Write(h.content[:truncate])
				return
			}

			http.ServeContent(w, r, "file.ext", modtime, bytes.NewReader(h.content))

		case stallPath:

			// A few bytes, then the body stalls until the client gives up.
			w.Header().Set("Content-Length", strconv.Itoa(len(h.content)))
			w.WriteHeader(http.StatusOK)
			w.Write(h.content[:10])
			w.(http.Flusher).Flush()
			<-r.Context().Done()

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (h *storageHost) setTruncate(n int) {

	h.mu.Lock()
	defer h.mu.Unlock()

	h.truncate = n
}

func (h *storageHost) setModtime(t time.Time) {

	h.mu.Lock()
	defer h.mu.Unlock()

	h.modtime = t
}

func (h *storageHost) requestCount() int {

	h.mu.Lock()
	defer h.mu.Unlock()

	return h.hits
}

func (h *storageHost) rangeHeaders() []string {

	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.ranges...)
}
