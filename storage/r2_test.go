package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectClient struct {
	put     *s3.PutObjectInput
	body    string
	deleted string
	err     error
}

func (f *fakeObjectClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{ETag: aws.String(`"abc123"`)}, nil
}

func (f *fakeObjectClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestGetPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "avatars/1/a.png", "https://cdn.example.com/avatars/1/a.png"},
		{"https://cdn.example.com/", "/avatars/1/a.png", "https://cdn.example.com/avatars/1/a.png"},
		{"https://cdn.example.com/media", "courts/2/b.jpg", "https://cdn.example.com/media/courts/2/b.jpg"},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		u, err := newR2Uploader(&fakeObjectClient{}, "bucket", tt.base)
		require.NoError(t, err)
		assert.Equal(t, tt.want, u.GetPublicURL(tt.key), "base=%s key=%s", tt.base, tt.key)
	}
}

func TestUploadAndDelete(t *testing.T) {
	client := &fakeObjectClient{}
	u, err := newR2Uploader(client, "meetbasket", "https://cdn.example.com")
	require.NoError(t, err)

	res, err := u.Upload(context.Background(), "logos/4/x.webp", "image/webp", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.ETag)
	assert.Equal(t, "https://cdn.example.com/logos/4/x.webp", res.Location)
	assert.Equal(t, "meetbasket", aws.ToString(client.put.Bucket))
	assert.Equal(t, "image/webp", aws.ToString(client.put.ContentType))
	assert.Equal(t, "img", client.body)

	require.NoError(t, u.Delete(context.Background(), "logos/4/x.webp"))
	assert.Equal(t, "logos/4/x.webp", client.deleted)

	client.err = errors.New("boom")
	_, err = u.Upload(context.Background(), "k", "image/png", strings.NewReader(""))
	assert.ErrorContains(t, err, "key: k")
}

func TestNewR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "a"})
	assert.ErrorIs(t, err, ErrInvalidR2Config)
}
