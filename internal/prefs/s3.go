package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// putAttempts bounds how often Put re-reads the object after losing a
// conditional write to another writer.
const putAttempts = 5

// objectAPI is the part of *s3.Client the backing uses.
type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backing stores the mapping as one JSON object in S3. Writers merge
// their entry into the current object and put it back only if the object
// is unchanged since they read it.
type S3Backing struct {
	client objectAPI
	bucket string
	key    string
}

// NewS3Backing returns a backing for s3://bucket/key.
func NewS3Backing(client *s3.Client, bucket, key string) *S3Backing {
	return &S3Backing{client: client, bucket: bucket, key: key}
}

// Load fetches the object. A missing object is an empty mapping.
func (b *S3Backing) Load(ctx context.Context) (map[string]string, error) {
	prefs, _, err := b.read(ctx)
	return prefs, err
}

// Lookup fetches the object and returns the entry for userID.
func (b *S3Backing) Lookup(ctx context.Context, userID string) (string, bool, error) {
	prefs, _, err := b.read(ctx)
	if err != nil {
		return "", false, err
	}
	code, ok := prefs[userID]
	return code, ok, nil
}

// Put sets one entry. A corrupt object is replaced.
func (b *S3Backing) Put(ctx context.Context, userID, code string) error {
	for attempt := 1; ; attempt++ {
		prefs, etag, err := b.read(ctx)
		if errors.Is(err, errCorrupt) {
			prefs, err = map[string]string{}, nil
		}
		if err != nil {
			return err
		}
		prefs[userID] = code

		err = b.write(ctx, prefs, etag)
		if err == nil {
			return nil
		}
		if !conflict(err) || attempt == putAttempts {
			return err
		}
	}
}

// read returns the mapping and the object's ETag, "" when it does not exist.
func (b *S3Backing) read(ctx context.Context) (map[string]string, string, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return map[string]string{}, "", nil
		}
		return nil, "", fmt.Errorf("failed to get s3://%s/%s: %w", b.bucket, b.key, err)
	}
	defer out.Body.Close()
	etag := aws.ToString(out.ETag)

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read s3://%s/%s: %w", b.bucket, b.key, err)
	}

	prefs := map[string]string{}
	if len(bytes.TrimSpace(data)) == 0 {
		return prefs, etag, nil
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, etag, fmt.Errorf("%w: s3://%s/%s: %v", errCorrupt, b.bucket, b.key, err)
	}
	return prefs, etag, nil
}

// write puts the indented JSON document. With an ETag the put succeeds only
// over that version; without one only when no object exists yet.
func (b *S3Backing) write(ctx context.Context, prefs map[string]string, etag string) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user languages: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json; charset=utf-8"),
	}
	if etag != "" {
		in.IfMatch = aws.String(etag)
	} else {
		in.IfNoneMatch = aws.String("*")
	}

	if _, err := b.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", b.bucket, b.key, err)
	}
	return nil
}

// conflict reports whether err is a lost conditional write.
func conflict(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
