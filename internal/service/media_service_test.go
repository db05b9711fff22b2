package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[aws.ToString(in.Key)] = data
	m.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memStore) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   aws.String(m.types[aws.ToString(in.Key)]),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestMediaService_UploadAndOpen(t *testing.T) {
	store := newMemStore()
	svc := NewMediaService(store, config.Config{PublicBaseURL: "https://api.example.com"})

	up, err := svc.Upload(context.Background(), pngBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Equal(t, "https://api.example.com/media/"+up.Key, up.URL)
	assert.Equal(t, "image/png", store.types[up.Key])

	obj, err := svc.Open(context.Background(), up.Key)
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, body)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, len(pngBytes), obj.Size)
}

func TestMediaService_PublicBucketURL(t *testing.T) {
	cfg := config.Config{PublicBaseURL: "https://api.example.com"}
	cfg.R2.PublicURL = "https://pub.r2.dev"
	svc := NewMediaService(newMemStore(), cfg)

	up, err := svc.Upload(context.Background(), jpegBytes)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(up.Key, ".jpg"))
	assert.Equal(t, "https://pub.r2.dev/"+up.Key, up.URL)
}

func TestMediaService_RejectsUnsupported(t *testing.T) {
	svc := NewMediaService(newMemStore(), config.Config{})

	_, err := svc.Upload(context.Background(), []byte("GIF89a........"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = svc.Upload(context.Background(), []byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	_, err = svc.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(context.Background(), make([]byte, maxMediaSize+1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMediaService_OpenMissing(t *testing.T) {
	svc := NewMediaService(newMemStore(), config.Config{})

	for _, key := range []string{"nope.png", "", "../etc/passwd", "a/b.png"} {
		_, err := svc.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrMediaNotFound, key)
	}
}
