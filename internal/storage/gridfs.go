package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS stores files in a MongoDB GridFS bucket keyed by ObjectID hex.
type GridFS struct {
	client *mongo.Client
	bucket *gridfs.Bucket
}

// NewGridFS connects to MongoDB and opens the bucket.
func NewGridFS(ctx context.Context, uri, dbName, bucketName string) (*GridFS, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	bucket, err := gridfs.NewBucket(client.Database(dbName), options.GridFSBucket().SetName(bucketName))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFS{client: client, bucket: bucket}, nil
}

// Save uploads data with its content type in the file metadata.
func (g *GridFS) Save(_ context.Context, data []byte, contentType string) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	id, err := g.bucket.UploadFromStream(primitive.NewObjectID().Hex(), bytes.NewReader(data), opts)
	if err != nil {
		return "", fmt.Errorf("upload to gridfs: %w", err)
	}
	return id.Hex(), nil
}

// Open streams a file out of the bucket.
func (g *GridFS) Open(_ context.Context, key string) (*Object, error) {
	oid, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return nil, ErrNotFound
	}
	stream, err := g.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open gridfs file: %w", err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			contentType = ct
		}
	}
	return &Object{Key: key, ContentType: contentType, Size: file.Length, Body: stream}, nil
}

// Close disconnects the MongoDB client.
func (g *GridFS) Close(ctx context.Context) error {
	return g.client.Disconnect(ctx)
}
