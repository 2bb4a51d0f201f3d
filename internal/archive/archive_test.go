package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body        []byte
	contentType string
	err         error
}

func (f fakeFetcher) Fetch(context.Context, string) ([]byte, string, error) {
	return f.body, f.contentType, f.err
}

type fakePutter struct {
	bucket, key, contentType string
	data                     []byte
	err                      error
}

func (p *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if p.err != nil {
		return minio.UploadInfo{}, p.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	p.bucket, p.key, p.contentType, p.data = bucket, key, opts.ContentType, data
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestMirror_Store(t *testing.T) {
	putter := &fakePutter{}
	m := newMirror(putter, fakeFetcher{body: []byte("png-bytes")}, "ecolog", "http://minio.local:9000/")
	m.newKey = func(string) string { return "illustrations/fixed.png" }

	got, err := m.Store(context.Background(), "https://img.example/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local:9000/ecolog/illustrations/fixed.png", got)
	assert.Equal(t, "ecolog", putter.bucket)
	assert.Equal(t, "image/png", putter.contentType)
	assert.Equal(t, []byte("png-bytes"), putter.data)
	assert.Equal(t, "minio.local:9000", m.Host())
}

func TestMirror_StoreErrors(t *testing.T) {
	m := newMirror(&fakePutter{}, fakeFetcher{err: errors.New("dial tcp: refused")}, "ecolog", "http://minio.local")
	_, err := m.Store(context.Background(), "https://img.example/a.png")
	assert.ErrorContains(t, err, "archive: fetch")

	m = newMirror(&fakePutter{err: errors.New("access denied")}, fakeFetcher{body: []byte("x")}, "ecolog", "http://minio.local")
	_, err = m.Store(context.Background(), "https://img.example/a.png")
	assert.ErrorContains(t, err, "access denied")
}

func TestObjectKey(t *testing.T) {
	assert.Regexp(t, `^illustrations/[0-9a-f-]{36}\.png$`, objectKey("image/png"))
	assert.Regexp(t, `\.jpg$`, objectKey("image/jpeg"))
	assert.Regexp(t, `\.webp$`, objectKey("image/webp"))
}

type fakeAdmin struct {
	exists    bool
	existsErr error
	policyErr error

	made   []string
	policy string
}

func (a *fakeAdmin) BucketExists(context.Context, string) (bool, error) {
	return a.exists, a.existsErr
}

func (a *fakeAdmin) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	a.made = append(a.made, bucket)
	return nil
}

func (a *fakeAdmin) SetBucketPolicy(_ context.Context, _ string, policy string) error {
	a.policy = policy
	return a.policyErr
}

func TestEnsureBucket_PublicReadOnIllustrations(t *testing.T) {
	admin := &fakeAdmin{}
	require.NoError(t, ensureBucket(context.Background(), admin, "ecolog", ""))
	assert.Equal(t, []string{"ecolog"}, admin.made)

	var policy bucketPolicy
	require.NoError(t, json.Unmarshal([]byte(admin.policy), &policy))
	require.Len(t, policy.Statement, 1)
	st := policy.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, []string{"*"}, st.Principal["AWS"])
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::ecolog/illustrations/*"}, st.Resource)
}

func TestEnsureBucket_ExistingBucketStillGetsPolicy(t *testing.T) {
	admin := &fakeAdmin{exists: true}
	require.NoError(t, ensureBucket(context.Background(), admin, "ecolog", ""))
	assert.Empty(t, admin.made)
	assert.NotEmpty(t, admin.policy)
}

func TestEnsureBucket_Errors(t *testing.T) {
	err := ensureBucket(context.Background(), &fakeAdmin{existsErr: errors.New("no route")}, "ecolog", "")
	assert.ErrorContains(t, err, "bucket exists")

	err = ensureBucket(context.Background(), &fakeAdmin{policyErr: errors.New("denied")}, "ecolog", "")
	assert.ErrorContains(t, err, "set bucket policy")
}
