package clientip_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/pagekit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name:       "cloudflare wins",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.195", "X-Forwarded-For": "192.168.1.1"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.195",
		},
		{
			name:       "digitalocean",
			headers:    map[string]string{"DO-Connecting-IP": "198.51.100.178", "X-Forwarded-For": "192.168.1.1"},
			remoteAddr: "10.0.0.1:1234",
			want:       "198.51.100.178",
		},
		{
			name:       "leftmost forwarded address",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.178, 203.0.113.195, 192.168.1.1"},
			remoteAddr: "10.0.0.1:1234",
			want:       "198.51.100.178",
		},
		{
			name:       "invalid header skipped",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip", "X-Real-IP": "203.0.113.195"},
			remoteAddr: "10.0.0.1:1234",
			want:       "203.0.113.195",
		},
		{
			name:       "unspecified rejected",
			headers:    map[string]string{"X-Real-IP": "0.0.0.0"},
			remoteAddr: "192.168.1.100:54321",
			want:       "192.168.1.100",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:54321",
			want:       "2001:db8::1",
		},
		{
			name:       "garbage remote addr returned raw",
			remoteAddr: "pipe",
			want:       "pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.GetIP(r))
		})
	}
}
