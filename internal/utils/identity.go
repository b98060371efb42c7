package utils

import (
    "crypto/rand"
    "encoding/base64"
    "image/color"
    "net/url"
    "strings"

    qrcode "github.com/skip2/go-qrcode"
)

// DefaultNickname is given to users created without one.
const DefaultNickname = "修行者"

const qrSize = 256

var qrForeground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}

// NewUserToken returns a random URL-safe identity token (16 bytes of
// entropy, 22 characters).
func NewUserToken() (string, error) {
    buf := make([]byte, 16)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return base64.RawURLEncoding.EncodeToString(buf), nil
}

// LoginURL is the frontend address a user QR code points at.
func LoginURL(baseURL, token string) string {
    return strings.TrimRight(baseURL, "/") + "/login?token=" + url.QueryEscape(token)
}

// UserQRCode renders the login URL for token as a base64 encoded PNG.
func UserQRCode(baseURL, token string) (string, error) {
    q, err := qrcode.New(LoginURL(baseURL, token), qrcode.Medium)
    if err != nil {
        return "", err
    }
    q.ForegroundColor = qrForeground
    q.BackgroundColor = color.White
    png, err := q.PNG(qrSize)
    if err != nil {
        return "", err
    }
    return base64.StdEncoding.EncodeToString(png), nil
}
