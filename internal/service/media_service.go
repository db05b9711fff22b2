package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/h2non/filetype"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Instagram rejects JPEG uploads above 8 MB.
const maxMediaSize = 8 << 20

var allowedMedia = map[string]struct{}{
	"jpg": {}, "png": {},
}

// ObjectStore is the subset of the S3 API used for media.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type MediaObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type MediaService interface {
	Upload(ctx context.Context, data []byte) (*transfer.MediaUpload, error)
	Open(ctx context.Context, key string) (*MediaObject, error)
}

type mediaService struct {
	store      ObjectStore
	bucket     string
	publicURL  string
	mediaProxy string
}

func NewMediaService(store ObjectStore, cfg config.Config) MediaService {
	return &mediaService{
		store:      store,
		bucket:     cfg.R2.BucketName,
		publicURL:  cfg.R2.PublicURL,
		mediaProxy: cfg.PublicBaseURL + "/media",
	}
}

// NewR2Client connects to Cloudflare R2 through its S3 compatible endpoint.
func NewR2Client(ctx context.Context, cfg config.R2) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	}), nil
}

// Upload stores a JPEG or PNG image and returns a URL the Graph API can fetch.
func (s *mediaService) Upload(ctx context.Context, data []byte) (*transfer.MediaUpload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if len(data) > maxMediaSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, maxMediaSize)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return nil, ErrUnsupportedMedia
	}
	if _, ok := allowedMedia[kind.Extension]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := id + "." + kind.Extension

	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(kind.MIME.Value),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	slog.Info("media uploaded", "key", key, "type", kind.MIME.Value, "size", len(data))
	return &transfer.MediaUpload{Key: key, URL: s.urlFor(key)}, nil
}

func (s *mediaService) urlFor(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return s.mediaProxy + "/" + key
}

func (s *mediaService) Open(ctx context.Context, key string) (*MediaObject, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return nil, ErrMediaNotFound
	}

	out, err := s.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrMediaNotFound
		}
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to read media: %w", err)
	}

	obj := &MediaObject{Body: out.Body, ContentType: aws.ToString(out.ContentType)}
	if out.ContentLength != nil {
		obj.Size = *out.ContentLength
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	return obj, nil
}
