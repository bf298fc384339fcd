package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"incident-reporting-system/pkg/apperror"
	"incident-reporting-system/services/incident-service/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Attachment struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	URL         string    `json:"url"`
}

// Upload is one file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Attachments struct {
	store     Store
	objects   ObjectStore
	maxSize   int64
	urlExpiry time.Duration
	log       zerolog.Logger
}

func NewAttachments(store Store, objects ObjectStore, maxSize int64, urlExpiry time.Duration, log zerolog.Logger) *Attachments {
	return &Attachments{store: store, objects: objects, maxSize: maxSize, urlExpiry: urlExpiry, log: log}
}

func (a *Attachments) MaxSize() int64 {
	return a.maxSize
}

// Add stores evidence for an incident the requester owns and that is not Closed.
func (a *Attachments) Add(ctx context.Context, requester Requester, id string, up Upload) (*Attachment, error) {
	inc, err := a.owned(ctx, requester, id)
	if err != nil {
		return nil, err
	}
	if inc.Status == models.StatusClosed {
		return nil, apperror.InvalidOperation(msgIncidentClosed)
	}

	name := cleanFilename(up.Filename)
	if name == "" {
		return nil, apperror.ValidationField("file", "No file was submitted.")
	}
	if up.Size <= 0 {
		return nil, apperror.ValidationField("file", "The submitted file is empty.")
	}
	if up.Size > a.maxSize {
		return nil, apperror.ValidationField("file", fmt.Sprintf("File exceeds the %d byte limit.", a.maxSize))
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := attachmentPrefix(inc.ID) + uuid.NewString() + "-" + name
	if err := a.objects.Put(ctx, key, up.Body, up.Size, contentType); err != nil {
		return nil, apperror.Internal("Failed to store attachment", err)
	}

	attachmentsUploaded.Inc()
	a.log.Info().Str("incident_id", inc.IncidentID).Str("key", key).Int64("size", up.Size).Msg("attachment stored")

	url, err := a.objects.PresignedURL(ctx, key, a.urlExpiry)
	if err != nil {
		return nil, apperror.Internal("Failed to sign attachment url", err)
	}
	return &Attachment{
		Name:        name,
		Size:        up.Size,
		ContentType: contentType,
		UploadedAt:  time.Now().UTC(),
		URL:         url,
	}, nil
}

// List returns the incident's attachments with short-lived download links.
func (a *Attachments) List(ctx context.Context, requester Requester, id string) ([]Attachment, error) {
	inc, err := a.owned(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	prefix := attachmentPrefix(inc.ID)
	objects, err := a.objects.List(ctx, prefix)
	if err != nil {
		return nil, apperror.Internal("Failed to list attachments", err)
	}

	attachments := make([]Attachment, 0, len(objects))
	for _, obj := range objects {
		url, err := a.objects.PresignedURL(ctx, obj.Key, a.urlExpiry)
		if err != nil {
			return nil, apperror.Internal("Failed to sign attachment url", err)
		}
		attachments = append(attachments, Attachment{
			Name:        displayName(strings.TrimPrefix(obj.Key, prefix)),
			Size:        obj.Size,
			ContentType: obj.ContentType,
			UploadedAt:  obj.LastModified,
			URL:         url,
		})
	}
	return attachments, nil
}

func (a *Attachments) owned(ctx context.Context, requester Requester, id string) (*models.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	inc, err := a.store.FindOwned(ctx, id, requester.ID)
	if err != nil {
		return nil, notFoundOr(err, "Failed to fetch incident")
	}
	return inc, nil
}

func attachmentPrefix(id string) string {
	return "incidents/" + id + "/"
}

// cleanFilename keeps the last path element of a client-supplied name.
func cleanFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// displayName strips the "<uuid>-" an object key carries in front of the file name.
func displayName(rest string) string {
	if len(rest) > 37 && rest[36] == '-' {
		if _, err := uuid.Parse(rest[:36]); err == nil {
			return rest[37:]
		}
	}
	return rest
}
