package s3

import (
	"context"
	"io"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	ActiveBucket *oss.Bucket

	GetObjectFunc    func(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error)
	PutObjectFunc    func(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error
	DeleteObjectFunc func(ctx context.Context, key string) error
)

// Enabled reports whether an object store is wired, the functions stay nil otherwise.
func Enabled() bool {
	return GetObjectFunc != nil && PutObjectFunc != nil
}

func Bootstrap(endpoint, accessKey, secretKey, bucketName string) error {
	bucket, err := BuildBucket(endpoint, accessKey, secretKey, bucketName)
	if err != nil {
		return err
	}
	ActiveBucket = bucket

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
	DeleteObjectFunc = DeleteObject
	return nil
}

func BuildBucket(endpoint, accessKey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accessKey, secretKey)
	if err != nil {
		return nil, err
	}
	return cli.Bucket(bucketName)
}

func startSpan(ctx context.Context, operation, key string) opentracing.Span {
	if ctx == nil {
		return nil
	}
	parentSpan := opentracing.SpanFromContext(ctx)
	if parentSpan == nil {
		return nil
	}
	sp := parentSpan.Tracer().StartSpan(operation, opentracing.ChildOf(parentSpan.Context()))
	sp.SetTag("object-key", key)
	return sp
}

func finishSpan(sp opentracing.Span, err error) {
	if sp == nil {
		return
	}
	ext.Error.Set(sp, err != nil)
	sp.Finish()
}

func GetObject(ctx context.Context, key string, opts ...oss.Option) (io.ReadCloser, error) {
	sp := startSpan(ctx, "get-object", key)
	r, err := ActiveBucket.GetObject(key, opts...)
	finishSpan(sp, err)
	return r, err
}

func PutObject(ctx context.Context, key string, r io.Reader, opts ...oss.Option) error {
	sp := startSpan(ctx, "put-object", key)
	err := ActiveBucket.PutObject(key, r, opts...)
	finishSpan(sp, err)
	return err
}

func DeleteObject(ctx context.Context, key string) error {
	sp := startSpan(ctx, "delete-object", key)
	err := ActiveBucket.DeleteObject(key)
	finishSpan(sp, err)
	return err
}
