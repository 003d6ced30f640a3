package repository

import "context"

// PublishTarget says where artifacts are uploaded.
type PublishTarget struct {
	Bucket  string
	Prefix  string
	Profile string
	Region  string
}

// PublishRepository uploads generated artifacts to object storage.
type PublishRepository interface {
	GetProfiles() []string
	GetAccountID(ctx context.Context, target PublishTarget) (string, error)
	Publish(ctx context.Context, target PublishTarget, paths []string) ([]string, error)
}
