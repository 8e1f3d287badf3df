package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/civista/nirman/internal/works/entity"
	"github.com/civista/nirman/internal/works/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// AttachmentService stores supporting documents (survey reports, site
// photographs) against an editable file. Objects live in MinIO; metadata
// rows ride along with the file. The client is optional: without object
// storage configured, uploads are refused but the rest of the system works.
type AttachmentService struct {
	fileRepo       *repository.FileRepository
	attachmentRepo *repository.AttachmentRepository
	minioClient    *minio.Client
	bucket         string
}

func NewAttachmentService(repos *repository.Repositories, minioClient *minio.Client, bucket string) *AttachmentService {
	return &AttachmentService{
		fileRepo:       repos.File,
		attachmentRepo: repos.Attachment,
		minioClient:    minioClient,
		bucket:         bucket,
	}
}

// Upload stores one document against the file.
func (s *AttachmentService) Upload(ctx context.Context, actor Principal, fileID, name, contentType string, size int64, reader io.Reader) (*entity.FileAttachment, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	file, err := s.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !file.Editable() {
		return nil, &PreconditionError{Condition: "an approved file does not accept new attachments"}
	}

	attID := uuid.New().String()
	objectKey := fmt.Sprintf("files/%s/%s%s", fileID, attID, filepath.Ext(name))
	if _, err := s.minioClient.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("store object: %w", err)
	}

	att := &entity.FileAttachment{
		ID:          attID,
		FileID:      fileID,
		Name:        name,
		ObjectKey:   objectKey,
		ContentType: contentType,
		Size:        size,
		UploadedBy:  actor.UserID,
		CreatedAt:   time.Now(),
	}
	if err := s.attachmentRepo.Create(ctx, att); err != nil {
		return nil, fmt.Errorf("create attachment: %w", err)
	}
	return att, nil
}

// List returns a file's attachments.
func (s *AttachmentService) List(ctx context.Context, fileID string) ([]entity.FileAttachment, error) {
	if _, err := s.fileRepo.FindByID(ctx, fileID); err != nil {
		return nil, err
	}
	return s.attachmentRepo.ListByFile(ctx, fileID)
}

// Download streams an attachment's object.
func (s *AttachmentService) Download(ctx context.Context, fileID, attachmentID string) (io.ReadCloser, *entity.FileAttachment, error) {
	att, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	if att.FileID != fileID {
		return nil, nil, repository.ErrNotFound
	}
	if s.minioClient == nil {
		return nil, nil, fmt.Errorf("object storage is not configured")
	}
	object, err := s.minioClient.GetObject(ctx, s.bucket, att.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch object: %w", err)
	}
	return object, att, nil
}
