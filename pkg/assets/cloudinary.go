// Package assets uploads product images to Cloudinary.
package assets

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/guonaihong/gout"
)

const (
	MaxImageSize  = 5 << 20
	uploadTimeout = 30 * time.Second
)

var (
	ErrTooLarge = errors.New("image exceeds 5 MiB")
	ErrNotImage = errors.New("file is not an image")
	ErrUpload   = errors.New("image upload failed")
)

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// Validate checks size and content type. An empty ContentType is sniffed from
// the data.
func (img Image) Validate() error {
	if len(img.Data) > MaxImageSize {
		return ErrTooLarge
	}
	ct := img.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return ErrNotImage
	}
	return nil
}

func (img Image) dataURI() string {
	ct := img.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(img.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

type Cloudinary struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	baseURL   string
	now       func() time.Time
}

func NewCloudinary(cfg *config.AssetsConfig) *Cloudinary {
	return &Cloudinary{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.Folder,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		now:       time.Now,
	}
}

type uploadReply struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload stores img and returns its https URL.
func (c *Cloudinary) Upload(ctx context.Context, img Image) (string, error) {
	if err := img.Validate(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.folder != "" {
		params["folder"] = c.folder
	}

	form := gout.H{
		"file":      img.dataURI(),
		"api_key":   c.apiKey,
		"signature": Signature(params, c.apiSecret),
	}
	for k, v := range params {
		form[k] = v
	}

	var (
		reply uploadReply
		code  int
	)
	err := gout.POST(fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cloudName)).
		WithContext(ctx).
		SetWWWForm(form).
		BindJSON(&reply).
		Code(&code).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if code < 200 || code > 299 || reply.SecureURL == "" {
		msg := fmt.Sprintf("status %d", code)
		if reply.Error != nil && reply.Error.Message != "" {
			msg = reply.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrUpload, msg)
	}
	return reply.SecureURL, nil
}

// Signature signs upload params: keys sorted, joined as k=v with "&", secret
// appended, SHA-1 hex.
func Signature(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
