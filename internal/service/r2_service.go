package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/adsync/configs"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreativeArchive keeps a copy of a creative's source file and returns the
// key it was stored under.
type CreativeArchive interface {
	ArchiveCreative(ctx context.Context, campaignID, filePath string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Service struct {
	config cfg.Config

	once      sync.Once
	client    objectPutter
	clientErr error
}

func NewR2Service(cfg cfg.Config) *R2Service {
	return &R2Service{config: cfg}
}

func (r *R2Service) r2Client(ctx context.Context) (objectPutter, error) {
	r.once.Do(func() {
		awsCfg, err := config.LoadDefaultConfig(ctx,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
			config.WithRegion("auto"),
		)
		if err != nil {
			slog.Info(err.Error())
			r.clientErr = err
			return
		}

		r.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
		})
	})
	return r.client, r.clientErr
}

func (r *R2Service) ArchiveCreative(ctx context.Context, campaignID, filePath string) (string, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("creatives/%s/%s%s", campaignID, id, filepath.Ext(filePath))

	if err := r.UploadToR2(ctx, key, file, sniffMIME(filePath)); err != nil {
		return "", err
	}
	return key, nil
}

func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	client, err := r.r2Client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(filetype),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
