// Package clientip extracts the client IP address of an HTTP request.
//
// Proxy headers are checked in priority order:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost address)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Addresses are validated and normalized with net.ParseIP; 0.0.0.0 is rejected.
// When nothing valid is found the raw RemoteAddr is returned.
//
//	ip := clientip.GetIP(r)
package clientip
