package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"tecnobra-backend/internal/cache"
	"tecnobra-backend/internal/config"
	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const backupPrefix = "snapshots/"

// ObjectStorage is the subset of the S3 client used for snapshots
type ObjectStorage interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var _ ObjectStorage = (*s3.Client)(nil)

// NewS3Client builds a client for AWS or any S3-compatible endpoint
func NewS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Backup.AccessKey,
			cfg.Backup.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Backup.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure S3 client: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Backup.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Backup.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Snapshot holds every collection as raw JSON
type Snapshot struct {
	CreatedAt   time.Time                  `json:"createdAt"`
	Collections map[string]json.RawMessage `json:"collections"`
}

type BackupInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

type BackupService struct {
	Store   store.Store
	Storage ObjectStorage
	Bucket  string
}

func NewBackupService(st store.Store, storage ObjectStorage, bucket string) *BackupService {
	return &BackupService{Store: st, Storage: storage, Bucket: bucket}
}

// TakeSnapshot reads all collections. Collections never written are omitted.
func (s *BackupService) TakeSnapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{CreatedAt: now.UTC(), Collections: make(map[string]json.RawMessage)}
	for _, key := range store.Keys {
		raw, err := s.Store.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if raw != nil {
			snap.Collections[key] = json.RawMessage(raw)
		}
	}
	return snap, nil
}

// Backup uploads a snapshot and returns its object key
func (s *BackupService) Backup(ctx context.Context, now time.Time) (key string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackupsTotal.WithLabelValues(outcome).Inc()
	}()

	snap, err := s.TakeSnapshot(ctx, now)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}

	key = backupPrefix + "tecnobra-" + now.UTC().Format("20060102T150405Z") + ".json"
	_, err = s.Storage.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	log.Printf("[Backup] Uploaded %s (%d bytes, %d collections)", key, len(data), len(snap.Collections))
	return key, nil
}

// List returns stored snapshots, newest first
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	result, err := s.Storage.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String(backupPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := []BackupInfo{}
	for _, obj := range result.Contents {
		info := BackupInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		backups = append(backups, info)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].LastModified.After(backups[j].LastModified) })
	return backups, nil
}

// Restore writes a snapshot back into the store. An empty key restores the
// latest snapshot. Every collection is validated before anything is written.
func (s *BackupService) Restore(ctx context.Context, key string) (string, error) {
	if key == "" {
		backups, err := s.List(ctx)
		if err != nil {
			return "", err
		}
		if len(backups) == 0 {
			return "", fmt.Errorf("%w: no backups found", ErrNotFound)
		}
		key = backups[0].Key
	}
	if !strings.HasPrefix(key, backupPrefix) {
		return "", fmt.Errorf("%w: not a snapshot key", ErrValidation)
	}

	resp, err := s.Storage.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download backup: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return "", fmt.Errorf("%w: snapshot is not valid JSON", ErrValidation)
	}

	known := make(map[string]bool, len(store.Keys))
	for _, k := range store.Keys {
		known[k] = true
	}
	for k, raw := range snap.Collections {
		if !known[k] {
			return "", fmt.Errorf("%w: unknown collection %q", ErrValidation, k)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", fmt.Errorf("%w: collection %s is not a list", ErrValidation, k)
		}
	}

	for _, k := range store.Keys {
		raw, ok := snap.Collections[k]
		if !ok {
			continue
		}
		if err := s.Store.Save(ctx, k, raw); err != nil {
			return "", fmt.Errorf("restore %s: %w", k, err)
		}
	}
	cache.InvalidateReports(ctx)
	log.Printf("[Backup] Restored %s (%d collections)", key, len(snap.Collections))
	return key, nil
}
