package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"Stash/internal/config"
)

// LocalGateway keeps objects under a root directory and signs download URLs
// with an HMAC that the service verifies when serving /objects/*.
type LocalGateway struct {
	root       string
	baseURL    string
	signingKey []byte
}

func NewLocalGateway(cfg config.LocalStorageConfig) (*LocalGateway, error) {
	if cfg.Path == "" {
		return nil, errors.New("local storage requires a path")
	}
	if cfg.SigningKey == "" {
		return nil, errors.New("local storage requires a signing key")
	}
	if err := os.MkdirAll(cfg.Path, 0750); err != nil {
		return nil, err
	}
	return &LocalGateway{
		root:       cfg.Path,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		signingKey: []byte(cfg.SigningKey),
	}, nil
}

func (g *LocalGateway) resolve(objectPath string) (string, error) {
	cleaned := filepath.Clean("/" + filepath.FromSlash(objectPath))
	if cleaned == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return filepath.Join(g.root, cleaned), nil
}

func (g *LocalGateway) writeFile(target string, reader io.Reader, size int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".part-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}
	if size >= 0 && written != size {
		return 0, fmt.Errorf("short write: expected %d bytes, got %d", size, written)
	}
	return written, os.Rename(tmp.Name(), target)
}

func (g *LocalGateway) PutObject(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	target, err := g.resolve(objectPath)
	if err != nil {
		return err
	}
	_, err = g.writeFile(target, reader, size)
	return err
}

func (g *LocalGateway) AppendChunk(ctx context.Context, stagingPath string, index int, reader io.Reader, size int64) error {
	target, err := g.resolve(stagingPath + "/" + chunkName(index))
	if err != nil {
		return err
	}
	_, err = g.writeFile(target, reader, size)
	return err
}

func (g *LocalGateway) CommitChunks(ctx context.Context, stagingPath, finalPath string, totalChunks int, contentType string) (int64, error) {
	target, err := g.resolve(finalPath)
	if err != nil {
		return 0, err
	}
	readers := make([]io.Reader, 0, totalChunks)
	for i := 0; i < totalChunks; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		chunkPath, err := g.resolve(stagingPath + "/" + chunkName(i))
		if err != nil {
			return 0, err
		}
		chunk, err := os.Open(chunkPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return 0, fmt.Errorf("chunk %d: %w", i, ErrObjectNotFound)
			}
			return 0, err
		}
		defer chunk.Close()
		readers = append(readers, chunk)
	}
	written, err := g.writeFile(target, io.MultiReader(readers...), -1)
	if err != nil {
		return 0, err
	}
	return written, g.DeletePrefix(ctx, stagingPath)
}

func (g *LocalGateway) sign(objectPath string, expires int64) string {
	mac := hmac.New(sha256.New, g.signingKey)
	mac.Write([]byte(objectPath))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *LocalGateway) GetSignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if _, err := g.resolve(objectPath); err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl).Unix()
	query := url.Values{}
	query.Set("expires", strconv.FormatInt(expires, 10))
	query.Set("signature", g.sign(objectPath, expires))
	return fmt.Sprintf("%s/objects/%s?%s", g.baseURL, escapeSegments(objectPath), query.Encode()), nil
}

func escapeSegments(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

// VerifySignature checks a URL produced by GetSignedURL.
func (g *LocalGateway) VerifySignature(objectPath, expires, signature string, now time.Time) bool {
	expiresAt, err := strconv.ParseInt(expires, 10, 64)
	if err != nil || now.Unix() > expiresAt {
		return false
	}
	expected := g.sign(objectPath, expiresAt)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *LocalGateway) DeleteObject(ctx context.Context, objectPath string) error {
	target, err := g.resolve(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (g *LocalGateway) DeletePrefix(ctx context.Context, prefix string) error {
	target, err := g.resolve(prefix)
	if err != nil {
		return err
	}
	return os.RemoveAll(target)
}

func (g *LocalGateway) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	target, err := g.resolve(objectPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return file, err
}
