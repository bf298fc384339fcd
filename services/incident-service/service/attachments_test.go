package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/pkg/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string]storage.Object
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string]storage.Object{}}
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storage.Object{Key: key, Size: n, ContentType: contentType, LastModified: time.Now()}
	return nil
}

func (m *memObjects) List(_ context.Context, prefix string) ([]storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.Object
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memObjects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://minio.local/evidence/" + key + "?X-Amz-Signature=sig", nil
}

func upload(name, body string) Upload {
	return Upload{Filename: name, ContentType: "text/plain", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestAttachments(t *testing.T) {
	incidents, store, _ := newIncidents(t)
	objects := newMemObjects()
	att := NewAttachments(store, objects, 16, 15*time.Minute, zerolog.Nop())
	ctx := context.Background()

	inc, err := incidents.Create(ctx, alice, validCreate())
	require.NoError(t, err)

	got, err := att.Add(ctx, alice, inc.ID, upload("../../photo.txt", "evidence"))
	require.NoError(t, err)
	assert.Equal(t, "photo.txt", got.Name)
	assert.Contains(t, got.URL, "incidents/"+inc.ID+"/")

	for key := range objects.objects {
		assert.True(t, strings.HasPrefix(key, "incidents/"+inc.ID+"/"))
	}

	list, err := att.List(ctx, alice, inc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "photo.txt", list[0].Name)
	assert.Equal(t, int64(8), list[0].Size)

	_, err = att.List(ctx, bob, inc.ID)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	_, err = att.Add(ctx, bob, inc.ID, upload("x.txt", "x"))
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestAttachments_Rejections(t *testing.T) {
	incidents, store, _ := newIncidents(t)
	att := NewAttachments(store, newMemObjects(), 16, 15*time.Minute, zerolog.Nop())
	ctx := context.Background()

	inc, err := incidents.Create(ctx, alice, validCreate())
	require.NoError(t, err)

	_, err = att.Add(ctx, alice, inc.ID, upload("big.bin", strings.Repeat("x", 17)))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = att.Add(ctx, alice, inc.ID, upload("", "x"))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	_, err = incidents.Update(ctx, alice, inc.ID, UpdateInput{Status: strPtr("Closed")})
	require.NoError(t, err)

	_, err = att.Add(ctx, alice, inc.ID, upload("late.txt", "x"))
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidOperation))

	list, err := att.List(ctx, alice, inc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "a-b.png", displayName("0b9d4c9e-7d0a-4b59-9a57-3f8f3c1d2e4f-a-b.png"))
	assert.Equal(t, "plain.png", displayName("plain.png"))
}
