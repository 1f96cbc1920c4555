package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/leadcall/internal/pkg/utils"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LinkExpire is a validity of a presigned link
const LinkExpire = time.Hour * 24 * 7

// Options for the store
type Options struct {
	URL       string
	User      string
	Key       string
	Bucket    string
	HTTPS     bool
	PublicURL string
}

// StoredFile is a reference to an uploaded object
type StoredFile struct {
	ID  string
	URL string
}

type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration,
		reqParams url.Values) (*url.URL, error)
}

// Store keeps audio files in a S3 compatible storage
type Store struct {
	client    objectAPI
	bucket    string
	publicURL string
}

// NewStore creates the store, makes the bucket if it does not exist
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("no storage url")
	}
	if opts.Bucket == "" {
		return nil, fmt.Errorf("no bucket")
	}
	goapp.Log.Info().Str("url", opts.URL).Str("bucket", opts.Bucket).Bool("https", opts.HTTPS).Msg("init storage")
	mc, err := minio.New(opts.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.User, opts.Key, ""),
		Secure: opts.HTTPS,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio client: %w", err)
	}
	ok, err := mc.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("can't check bucket: %w", err)
	}
	if !ok {
		goapp.Log.Info().Str("bucket", opts.Bucket).Msg("creating bucket")
		if err := mc.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("can't create bucket: %w", err)
		}
	}
	return &Store{client: mc, bucket: opts.Bucket, publicURL: strings.TrimSuffix(opts.PublicURL, "/")}, nil
}

// Upload saves data and returns the object reference with a shareable link
func (s *Store) Upload(ctx context.Context, name string, data []byte) (*StoredFile, error) {
	defer goapp.Estimate("upload " + name)()
	info, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: utils.AudioMIME(name)})
	if err != nil {
		return nil, fmt.Errorf("can't upload %s: %w", name, err)
	}
	goapp.Log.Info().Str("key", info.Key).Int64("size", info.Size).Msg("uploaded")
	res := &StoredFile{ID: name}
	if s.publicURL != "" {
		res.URL, err = url.JoinPath(s.publicURL, s.bucket, name)
		if err != nil {
			return nil, fmt.Errorf("can't make url: %w", err)
		}
		return res, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, LinkExpire, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("can't make link: %w", err)
	}
	res.URL = u.String()
	return res, nil
}

// ObjectName makes a stable object name for a recording
func ObjectName(id, phone, leadName, fileName, ext string) string {
	parts := []string{}
	if s := utils.CleanName(leadName); s != "" {
		parts = append(parts, s)
	}
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if s := utils.CleanName(base); s != "" {
		parts = append(parts, s)
	}
	if len(id) > 8 {
		id = id[:8]
	}
	parts = append(parts, id)
	dir := utils.CleanName(phone)
	if dir == "" {
		dir = "unknown"
	}
	return "recordings/" + dir + "/" + strings.Join(parts, "_") + ext
}
