// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"bufio"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CompressConfig 壓縮等級；回應多為小型 JSON，預設偏向速度
type CompressConfig struct {
	GzipLevel int
	ZstdLevel zstd.EncoderLevel
}

var DefaultCompressConfig = CompressConfig{
	GzipLevel: gzip.BestSpeed,
	ZstdLevel: zstd.SpeedFastest,
}

// encoder gzip.Writer 與 zstd.Encoder 的共同行為
type encoder interface {
	io.Writer
	Flush() error
	Close() error
	Reset(w io.Writer)
}

type codec struct {
	name string
	pool sync.Pool
}

func (c *codec) get(w io.Writer) encoder {
	enc := c.pool.Get().(encoder)
	enc.Reset(w)
	return enc
}

// put body 未寫出（204/304）時先導向 io.Discard，避免 Close 產生的 footer 汙染回應
func (c *codec) put(enc encoder, discard bool) {
	if discard {
		enc.Reset(io.Discard)
	}
	_ = enc.Close()
	c.pool.Put(enc)
}

var (
	zstdCodec = &codec{name: "zstd", pool: sync.Pool{New: func() any {
		zw, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(DefaultCompressConfig.ZstdLevel),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			panic(err)
		}
		return zw
	}}}
	gzipCodec = &codec{name: "gzip", pool: sync.Pool{New: func() any {
		gw, _ := gzip.NewWriterLevel(nil, DefaultCompressConfig.GzipLevel)
		return gw
	}}}
)

func pickCodec(acceptEncoding string) *codec {
	ae := strings.ToLower(acceptEncoding)
	switch {
	case strings.Contains(ae, "zstd"):
		return zstdCodec
	case strings.Contains(ae, "gzip"):
		return gzipCodec
	default:
		return nil
	}
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade") ||
		r.Header.Get("Upgrade") != ""
}

// 204 No Content, 304 Not Modified, 1xx Informational
func isNoBodyStatus(code int) bool {
	return (code >= 100 && code < 200) || code == http.StatusNoContent || code == http.StatusNotModified
}

type compressResponseWriter struct {
	http.ResponseWriter
	enc      encoder
	disabled bool // 無 body 的狀態碼動態取消壓縮
}

func (cw *compressResponseWriter) Write(b []byte) (int, error) {
	if cw.disabled {
		return cw.ResponseWriter.Write(b)
	}
	cw.Header().Del("Content-Length")
	if cw.Header().Get("Content-Type") == "" {
		cw.Header().Set("Content-Type", http.DetectContentType(b))
	}
	return cw.enc.Write(b)
}

func (cw *compressResponseWriter) WriteHeader(code int) {
	cw.Header().Del("Content-Length")
	if isNoBodyStatus(code) {
		cw.disabled = true
		cw.Header().Del("Content-Encoding")
		cw.Header().Del("Vary")
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *compressResponseWriter) Flush() {
	if !cw.disabled {
		_ = cw.enc.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (cw *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := cw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support Hijacker")
	}
	return hj.Hijack()
}

// Compression 依 Accept-Encoding 選 zstd 優先，其次 gzip
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || isWebSocketUpgrade(r) || w.Header().Get("Content-Encoding") != "" {
			next.ServeHTTP(w, r)
			return
		}
		c := pickCodec(r.Header.Get("Accept-Encoding"))
		if c == nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", c.name)
		w.Header().Add("Vary", "Accept-Encoding")
		cw := &compressResponseWriter{ResponseWriter: w, enc: c.get(w)}
		defer func() { c.put(cw.enc, cw.disabled) }()

		next.ServeHTTP(cw, r)
	})
}
