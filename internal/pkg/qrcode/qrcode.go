// Package qrcode renders attendance check-in links as PNG QR codes.
package qrcode

import (
	"fmt"
	"net/url"

	goqrcode "github.com/skip2/go-qrcode"
)

// Generator builds check-in URLs and encodes them as QR PNGs
type Generator struct {
	baseURL string
	size    int
}

// NewGenerator creates a generator for links under baseURL, rendered at size pixels
func NewGenerator(baseURL string, size int) *Generator {
	return &Generator{baseURL: baseURL, size: size}
}

// CheckInURL returns baseURL with the token appended as the "token" query parameter
func (g *Generator) CheckInURL(token string) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid check-in base URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PNG renders the check-in URL for token as a PNG image
func (g *Generator) PNG(token string) ([]byte, error) {
	content, err := g.CheckInURL(token)
	if err != nil {
		return nil, err
	}
	png, err := goqrcode.Encode(content, goqrcode.Medium, g.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
