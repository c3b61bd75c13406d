package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/mkrasovska/nutritrack/internal/server/config"
	"github.com/mkrasovska/nutritrack/internal/server/models"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

// Seams for tests that exercise the presign flow without AWS.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// CommentService stores the per-patient comment threads. Attachments live in
// object storage; the service only hands out presigned URLs and stores the
// object key on the comment.
type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	broker      watch.Broker
	config      *sc.Config
}

func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, b watch.Broker, config *sc.Config) *CommentService {
	return &CommentService{db: db, repomanager: m, broker: b, config: config}
}

func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("attachments/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Post stores a comment on the patient's thread. AttachmentKey, when set,
// must be a key previously issued by GetPresignedPutUrl.
func (s *CommentService) Post(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	created, err := s.repomanager.Comments(s.db).Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error creating comment: %v", err)
	}

	_ = s.broker.Publish(ctx, watch.Event{Collection: CollectionComments, DocID: created.ID, Kind: watch.ChangeAdded})
	return created, nil
}

// ListByPatient returns the patient's thread, newest first.
func (s *CommentService) ListByPatient(ctx context.Context, patientID string, limit int) ([]*models.Comment, error) {
	return s.repomanager.Comments(s.db).ListByPatient(ctx, patientID, limit)
}

func (s *CommentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutUrl issues a fresh storage key and a presigned upload URL
// for an attachment.
func (s *CommentService) GetPresignedPutUrl(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// GetPresignedGetUrl issues a presigned download URL for a stored attachment.
func (s *CommentService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
