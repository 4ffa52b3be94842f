package media

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newTestService(storage ObjectStorage) *Service {
	s := NewService(ServiceConfig{Storage: storage, PublicBaseURL: "https://cdn.test/"})
	s.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateUploadURL(t *testing.T) {
	storage := new(MockStorage)
	expires := time.Date(2026, 3, 9, 10, 15, 0, 0, time.UTC)
	storage.On("GenerateUploadURL", mock.Anything, mock.AnythingOfType("string"), "image/webp", defaultUploadExpiry).
		Return("https://bucket.test/upload?sig=abc", expires, nil).Once()

	resp, err := newTestService(storage).CreateUploadURL(context.Background(), CreateUploadURLRequest{
		Kind:        KindBanner,
		Filename:    "../hero.WEBP",
		ContentType: "Image/WebP",
	})
	require.NoError(t, err)
	storage.AssertExpectations(t)

	assert.Regexp(t, regexp.MustCompile(`^banners/2026/03/[0-9a-f-]{36}\.webp$`), resp.Key)
	assert.Equal(t, "https://bucket.test/upload?sig=abc", resp.UploadURL)
	assert.Equal(t, "https://cdn.test/"+resp.Key, resp.PublicURL)
	assert.Equal(t, expires, resp.ExpiresAt)
}

func TestCreateUploadURL_Rejections(t *testing.T) {
	storage := new(MockStorage)
	svc := newTestService(storage)
	ctx := context.Background()

	_, err := svc.CreateUploadURL(ctx, CreateUploadURLRequest{Kind: KindProduct, Filename: "a.svg", ContentType: "image/svg+xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JPEG")

	_, err = svc.CreateUploadURL(ctx, CreateUploadURLRequest{Kind: "avatar", Filename: "a.png", ContentType: "image/png"})
	require.Error(t, err)

	storage.On("GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", time.Time{}, errors.New("s3 down")).Once()
	_, err = svc.CreateUploadURL(ctx, CreateUploadURLRequest{Kind: KindProduct, Filename: "a.png", ContentType: "image/png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 down")
}

func TestPublicURL(t *testing.T) {
	svc := newTestService(nil)
	assert.Equal(t, "https://cdn.test/products/a.jpg", svc.PublicURL("products/a.jpg"))
	assert.Equal(t, "https://cdn.test/products/a.jpg", svc.PublicURL("/products/a.jpg"))
	assert.Equal(t, "https://elsewhere.test/x.jpg", svc.PublicURL("https://elsewhere.test/x.jpg"))
	assert.Empty(t, svc.PublicURL(""))
}
