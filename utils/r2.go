package utils

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage stores tender documents in a Cloudflare R2 bucket through the S3
// API. Public URLs use the domain configured via R2_PUBLIC_DOMAIN (a custom
// domain or the r2.dev URL enabled in the bucket settings).
type R2Storage struct {
	s3           *s3.Client
	bucket       string
	publicDomain string
}

func NewR2Storage() (*R2Storage, error) {
	bucket := os.Getenv("R2_BUCKET")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")
	endpoint := os.Getenv("R2_ENDPOINT") // https://<account-id>.r2.cloudflarestorage.com

	if bucket == "" || accessKey == "" || secretKey == "" || endpoint == "" {
		return nil, fmt.Errorf("missing R2 env vars (R2_BUCKET, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_ENDPOINT)")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // required for R2
	})

	return &R2Storage{
		s3:           client,
		bucket:       bucket,
		publicDomain: os.Getenv("R2_PUBLIC_DOMAIN"),
	}, nil
}

func (r *R2Storage) Upload(ctx context.Context, objectName string, fh *multipart.FileHeader) (*models.TenderDocument, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ct := contentTypeFor(fh)

	_, err = r.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(objectName),
		Body:          file,
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(fh.Size),
		CacheControl:  aws.String("no-cache"),
	})
	if err != nil {
		return nil, fmt.Errorf("r2 put: %w", err)
	}

	return &models.TenderDocument{
		FileName:   fh.Filename,
		ObjectName: objectName,
		PublicURL:  fmt.Sprintf("%s/%s", r.publicDomain, objectName),
		MimeType:   ct,
		SizeBytes:  fh.Size,
	}, nil
}

func (r *R2Storage) Download(ctx context.Context, objectName string, w io.Writer) (int64, error) {
	out, err := r.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		return 0, fmt.Errorf("r2 get: %w", err)
	}
	defer out.Body.Close()
	return io.Copy(w, out.Body)
}

func (r *R2Storage) Delete(ctx context.Context, objectName string) error {
	_, err := r.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectName),
	})
	return err
}
