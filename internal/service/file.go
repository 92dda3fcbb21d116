package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/storage"
)

var ErrAttachmentsDisabled = errors.New("anexos não estão habilitados neste servidor")

// Upload describes a file received from a form. Validation (type, size)
// happens in the caller before the upload.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

// NewFileService accepts a nil storage, in which case every upload fails
// with ErrAttachmentsDisabled.
func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

func (s *FileService) Upload(ctx context.Context, userID, ownerType, ownerID, fileType string, upload Upload) (*model.File, error) {
	if !s.Enabled() {
		return nil, ErrAttachmentsDisabled
	}

	filename := uuid.New().String() + filepath.Ext(upload.Name)
	storagePath := path.Join(userID, fileType+"s", filename)

	err := s.storage.Save(ctx, storagePath, upload.ContentType, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: filepath.Base(upload.Name),
		MimeType:     upload.ContentType,
		Size:         upload.Size,
		StoragePath:  storagePath,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(ctx, file)
	if err != nil {
		// Remove the orphaned object
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return file, nil
}

// Attachment returns the newest file of the given type, or nil when there is none.
func (s *FileService) Attachment(ctx context.Context, ownerType, ownerID, fileType string) (*model.File, error) {
	file, err := s.fileRepo.FileByType(ctx, ownerType, ownerID, fileType)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil || !s.Enabled() {
		return ""
	}

	url, err := s.storage.URL(ctx, file.StoragePath)
	if err != nil {
		slog.Warn("failed to presign file URL", "error", err, "file_id", file.ID)
		s3Storage, ok := s.storage.(*storage.S3Storage)
		if ok {
			return s3Storage.DirectURL(file.StoragePath)
		}
		return ""
	}
	return url
}

// DeleteOwned removes every file attached to an owner, from storage and database.
func (s *FileService) DeleteOwned(ctx context.Context, ownerType, ownerID string) error {
	files, err := s.fileRepo.Files(ctx, ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	for _, file := range files {
		err = s.Delete(ctx, file)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *FileService) Delete(ctx context.Context, file *model.File) error {
	if s.Enabled() {
		// Best effort, the object may already be gone
		delErr := s.storage.Delete(ctx, file.StoragePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
		}
	}

	err := s.fileRepo.Delete(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteAllUserFilesFromStorage removes a user's objects ahead of account
// deletion. Rows go with the user through the foreign key.
func (s *FileService) DeleteAllUserFilesFromStorage(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}

	files, err := s.fileRepo.UserFiles(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
