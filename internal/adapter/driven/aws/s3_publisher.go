package aws

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/diillson/pnad-income-go/internal/domain/repository"
)

// objectPutter é o subconjunto do cliente S3 usado pelo publicador.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// identityGetter é o subconjunto do cliente STS usado pelo publicador.
type identityGetter interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3PublisherImpl implementa o PublishRepository com cache de clientes.
type S3PublisherImpl struct {
	cfgCache    map[string]aws.Config
	clientCache map[string]interface{}
	mu          sync.Mutex
}

// NewPublishRepository cria uma nova implementação do PublishRepository.
func NewPublishRepository() repository.PublishRepository {
	return &S3PublisherImpl{
		cfgCache:    make(map[string]aws.Config),
		clientCache: make(map[string]interface{}),
	}
}

func (r *S3PublisherImpl) getAWSConfig(ctx context.Context, profile string) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.cfgCache[profile]; ok {
		return cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for profile %s: %w", profile, err)
	}

	r.cfgCache[profile] = cfg
	return cfg, nil
}

func (r *S3PublisherImpl) getServiceClient(ctx context.Context, profile, region, service string) (interface{}, error) {
	cacheKey := fmt.Sprintf("%s-%s-%s", profile, region, service)

	r.mu.Lock()
	if client, ok := r.clientCache[cacheKey]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx, profile)
	if err != nil {
		return nil, err
	}

	regionalCfg := cfg.Copy()
	if region != "" {
		regionalCfg.Region = region
	}

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(regionalCfg)
	case "s3":
		client = s3.NewFromConfig(regionalCfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[cacheKey] = client
	r.mu.Unlock()

	return client, nil
}

// GetProfiles lista os perfis declarados em ~/.aws/credentials e ~/.aws/config.
func (r *S3PublisherImpl) GetProfiles() []string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return []string{"default"}
	}
	return profilesFromFiles(
		filepath.Join(homeDir, ".aws", "credentials"),
		filepath.Join(homeDir, ".aws", "config"),
	)
}

var profileRegex = regexp.MustCompile(`\[([^]]+)\]`)

func profilesFromFiles(credentialsPath, configPath string) []string {
	profiles := make(map[string]bool)

	parseFile := func(path string, isConfig bool) {
		content, err := os.ReadFile(path)
		if err != nil {
			return
		}
		matches := profileRegex.FindAllStringSubmatch(string(content), -1)
		for _, match := range matches {
			profileName := match[1]
			if isConfig {
				profileName = strings.TrimPrefix(profileName, "profile ")
			}
			profiles[profileName] = true
		}
	}

	parseFile(credentialsPath, false)
	parseFile(configPath, true)

	if len(profiles) == 0 {
		profiles["default"] = true
	}

	result := make([]string, 0, len(profiles))
	for profile := range profiles {
		result = append(result, profile)
	}
	sort.Strings(result)
	return result
}

// GetAccountID devolve a conta AWS das credenciais do destino.
func (r *S3PublisherImpl) GetAccountID(ctx context.Context, target repository.PublishTarget) (string, error) {
	client, err := r.getServiceClient(ctx, target.Profile, "us-east-1", "sts")
	if err != nil {
		return "", err
	}
	return accountID(ctx, client.(*sts.Client), target.Profile)
}

func accountID(ctx context.Context, client identityGetter, profile string) (string, error) {
	result, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("error getting account ID for profile %s: %w", profile, err)
	}
	return aws.ToString(result.Account), nil
}

// Publish envia cada arquivo para s3://bucket/prefix<nome do arquivo> e
// devolve as URIs enviadas, na ordem recebida.
func (r *S3PublisherImpl) Publish(ctx context.Context, target repository.PublishTarget, paths []string) ([]string, error) {
	if target.Bucket == "" {
		return nil, fmt.Errorf("no S3 bucket configured")
	}
	client, err := r.getServiceClient(ctx, target.Profile, target.Region, "s3")
	if err != nil {
		return nil, err
	}
	return upload(ctx, client.(*s3.Client), target, paths)
}

func upload(ctx context.Context, client objectPutter, target repository.PublishTarget, paths []string) ([]string, error) {
	uploaded := make([]string, 0, len(paths))
	for _, p := range paths {
		key := objectKey(target.Prefix, p)

		file, err := os.Open(p)
		if err != nil {
			return uploaded, fmt.Errorf("error opening %s: %w", p, err)
		}
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(target.Bucket),
			Key:         aws.String(key),
			Body:        file,
			ContentType: aws.String(contentType(p)),
		})
		file.Close()
		if err != nil {
			return uploaded, fmt.Errorf("error uploading %s to bucket %s: %w", p, target.Bucket, err)
		}
		uploaded = append(uploaded, fmt.Sprintf("s3://%s/%s", target.Bucket, key))
	}
	return uploaded, nil
}

func objectKey(prefix, file string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(prefix, filepath.Base(file))
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".pdf":
		return "application/pdf"
	case ".db":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}
