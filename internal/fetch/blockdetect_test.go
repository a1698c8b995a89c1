package fetch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	t.Run("CloudflareHeader", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: 403,
			Header:     http.Header{"Cf-Ray": []string{"abc123"}},
		}
		blocked, bt := DetectBlock(resp, []byte("forbidden"))
		assert.True(t, blocked)
		assert.Equal(t, BlockCloudflare, bt)
	})

	t.Run("CloudflareChallengePage", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Header: http.Header{}}
		blocked, bt := DetectBlock(resp, []byte("<html>Checking your browser before accessing</html>"))
		assert.True(t, blocked)
		assert.Equal(t, BlockCloudflare, bt)
	})

	t.Run("Captcha", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Header: http.Header{}}
		blocked, bt := DetectBlock(resp, []byte(`<div class="g-recaptcha"></div>`))
		assert.True(t, blocked)
		assert.Equal(t, BlockCaptcha, bt)
	})

	t.Run("JSShell", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Header: http.Header{}}
		body := []byte(`<html><noscript>Please enable JavaScript</noscript></html>`)
		blocked, bt := DetectBlock(resp, body)
		assert.True(t, blocked)
		assert.Equal(t, BlockJSShell, bt)
	})

	t.Run("CleanPage", func(t *testing.T) {
		resp := &http.Response{StatusCode: 200, Header: http.Header{}}
		body := []byte(`<html><body><h1>Contact Us</h1><p>General Manager: 011-2481481</p></body></html>`)
		blocked, bt := DetectBlock(resp, body)
		assert.False(t, blocked)
		assert.Equal(t, BlockNone, bt)
	})

	t.Run("NilResponse", func(t *testing.T) {
		blocked, _ := DetectBlock(nil, nil)
		assert.False(t, blocked)
	})
}
