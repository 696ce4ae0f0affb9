// Package backup snapshots the data file, optionally copies it to S3, and restores it.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dashpoultry/internal/config"
)

const (
	filePrefix = "dash_poultry_backup_"
	fileExt    = ".db"
	stampFmt   = "20060102_150405"
)

var sqliteHeader = []byte("SQLite format 3\x00")

// ErrNotDatabase is returned by Restore when the source is not an SQLite file.
var ErrNotDatabase = errors.New("backup is not an sqlite database")

// Snapshotter writes a consistent copy of the live database.
type Snapshotter interface {
	VacuumInto(ctx context.Context, dest string) error
}

// ObjectPutter is the S3 call used for cloud copies.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Info describes a backup file.
type Info struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Uploaded  string    `json:"uploaded,omitempty"`
}

type Service struct {
	db     Snapshotter
	s3     ObjectPutter
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// NewService builds a backup service. s3 may be nil to keep backups local only.
func NewService(db Snapshotter, putter ObjectPutter, cfg config.BackupConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     db,
		s3:     putter,
		bucket: cfg.S3Bucket,
		prefix: strings.Trim(cfg.S3Prefix, "/"),
		logger: logger,
		now:    time.Now,
	}
}

// NewS3Client builds the S3 client for cfg, honouring a custom endpoint for S3-compatible stores.
func NewS3Client(ctx context.Context, cfg config.BackupConfig) (*s3.Client, error) {
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Create writes a timestamped snapshot into dir and uploads it when S3 is configured.
func (s *Service) Create(ctx context.Context, dir string) (Info, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Info{}, fmt.Errorf("create backup dir: %w", err)
	}

	created := s.now()
	name := filePrefix + created.Format(stampFmt) + fileExt
	dest := filepath.Join(dir, name)

	if err := s.db.VacuumInto(ctx, dest); err != nil {
		return Info{}, fmt.Errorf("snapshot database: %w", err)
	}

	st, err := os.Stat(dest)
	if err != nil {
		return Info{}, fmt.Errorf("stat backup: %w", err)
	}
	info := Info{Name: name, Path: dest, Size: st.Size(), CreatedAt: created}
	s.logger.Info("backup created", zap.String("path", dest), zap.Int64("bytes", info.Size))

	if s.s3 == nil || s.bucket == "" {
		return info, nil
	}

	key := path.Join(s.prefix, name)
	if err := s.upload(ctx, dest, key); err != nil {
		return info, err
	}
	info.Uploaded = "s3://" + s.bucket + "/" + key
	s.logger.Info("backup uploaded", zap.String("location", info.Uploaded))
	return info, nil
}

func (s *Service) upload(ctx context.Context, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup for upload: %w", err)
	}
	defer f.Close()

	_, err = s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return fmt.Errorf("upload backup to s3: %w", err)
	}
	return nil
}

// List returns the backups in dir, newest first.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		created, err := time.ParseInLocation(stampFmt, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt), time.Local)
		if err != nil {
			created = fi.ModTime()
		}
		out = append(out, Info{Name: name, Path: filepath.Join(dir, name), Size: fi.Size(), CreatedAt: created})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Restore copies src over the data file at dst. The server must not be running.
func Restore(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer in.Close()

	header := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(in, header); err != nil || string(header) != string(sqliteHeader) {
		return fmt.Errorf("%w: %s", ErrNotDatabase, src)
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := dst + ".restore"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("copy backup: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close restore file: %w", err)
	}

	// Stale WAL files would be replayed over the restored pages.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", dst+suffix, err)
		}
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
