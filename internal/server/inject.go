package server

import (
	"bytes"
	"net/http"
	"strings"
)

const maxInjectSize = 512 * 1024

var scriptTag = []byte(`<script async src="/__livereload.js"></script>`)

// injectLiveReload adds the client script before </body> in HTML pages.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "" && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers HTML bodies up to maxInjectSize and passes everything
// else through untouched.
type injector struct {
	http.ResponseWriter
	status        int
	buf           []byte
	buffering     bool
	passthrough   bool
	headerWritten bool
}

func (in *injector) WriteHeader(code int) {
	in.status = code
	if in.passthrough {
		in.writeHeader()
	}
}

func (in *injector) writeHeader() {
	if !in.headerWritten {
		in.ResponseWriter.WriteHeader(in.status)
		in.headerWritten = true
	}
}

func (in *injector) Write(data []byte) (int, error) {
	if !in.buffering && !in.passthrough {
		ct := in.Header().Get("Content-Type")
		if in.status != http.StatusOK || (ct != "" && !strings.Contains(ct, "text/html")) {
			in.passthrough = true
		} else {
			in.buffering = true
			in.buf = make([]byte, 0, 64*1024)
		}
	}
	if in.passthrough {
		in.writeHeader()
		return in.ResponseWriter.Write(data)
	}
	if len(in.buf)+len(data) > maxInjectSize {
		in.passthrough = true
		in.writeHeader()
		if len(in.buf) > 0 {
			if _, err := in.ResponseWriter.Write(in.buf); err != nil {
				return 0, err
			}
			in.buf = nil
		}
		return in.ResponseWriter.Write(data)
	}
	in.buf = append(in.buf, data...)
	return len(data), nil
}

func (in *injector) finalize() {
	if in.passthrough || !in.buffering {
		in.writeHeader()
		return
	}
	body := in.buf
	if i := bytes.LastIndex(body, []byte("</body>")); i >= 0 {
		out := make([]byte, 0, len(body)+len(scriptTag))
		out = append(out, body[:i]...)
		out = append(out, scriptTag...)
		out = append(out, body[i:]...)
		body = out
		in.Header().Del("Content-Length")
	}
	in.writeHeader()
	_, _ = in.ResponseWriter.Write(body)
}
