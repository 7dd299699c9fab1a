package fetch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/micahKingVinciworks/pdf-marketing-image-app/metrics"
)

// objectGetter is the slice of the S3 client the fetcher needs; tests
// substitute a fake.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (f *Fetcher) fetchS3(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	data, err := f.getS3Object(ctx, rawURL)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ObserveFetch("s3", result, time.Since(start))
	return data, err
}

func (f *Fetcher) getS3Object(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := splitS3URL(rawURL)
	if err != nil {
		return nil, &Error{URL: rawURL, Category: CategoryGeneric, Err: err}
	}

	cli := f.s3
	if cli == nil {
		// region and credentials come from the default chain
		cfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, &Error{URL: rawURL, Category: CategoryConnectivity, Err: err}
		}
		cli = s3.NewFromConfig(cfg)
	}

	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, &Error{URL: rawURL, Category: categorizeS3(err), Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{URL: rawURL, Category: CategoryConnectivity, Err: err}
	}
	if len(data) == 0 {
		return nil, &Error{URL: rawURL, Category: CategoryEmptyPayload}
	}

	log.Info().Str("bucket", bucket).Str("key", key).Int("bytes", len(data)).Msg("downloaded s3 object")
	return data, nil
}

func splitS3URL(raw string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(raw, "s3://")
	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", raw)
	}
	return rest[:slash], rest[slash+1:], nil
}

func categorizeS3(err error) Category {
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "accessdenied") || strings.Contains(s, "access denied") {
		return CategoryForbidden
	}
	return CategoryGeneric
}
