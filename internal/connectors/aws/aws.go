// Package aws discovers EC2 instances and S3 buckets as schema-less resource
// documents.
package aws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/assetscan/assetscan/internal/asset"
)

const defaultHTTPTimeout = 120 * time.Second

// Resource types written by this connector.
const (
	TypeEC2Instance = "ec2_instance"
	TypeS3Bucket    = "s3_bucket"
)

type ec2API interface {
	DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type s3API interface {
	ListBuckets(context.Context, *s3.ListBucketsInput, ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketEncryption(context.Context, *s3.GetBucketEncryptionInput, ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error)
}

// Connector discovers AWS resources in one region.
type Connector struct {
	name   string
	region string

	ec2 ec2API
	s3  s3API
}

// New builds a connector using the default AWS credential chain.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: defaultHTTPTimeout}),
	)
	if err != nil {
		return nil, err
	}
	return NewWithClients(cfg, ec2.NewFromConfig(awsCfg), s3.NewFromConfig(awsCfg)), nil
}

// NewWithClients builds a connector over caller-supplied service clients.
func NewWithClients(cfg Config, ec2c ec2API, s3c s3API) *Connector {
	cfg = cfg.Normalized()
	return &Connector{
		name:   cfg.Name,
		region: cfg.Region,
		ec2:    ec2c,
		s3:     s3c,
	}
}

func (c *Connector) Kind() string { return "aws" }

func (c *Connector) Name() string { return c.name }

// Discover lists EC2 instances and S3 buckets and maps them into resource
// documents.
func (c *Connector) Discover(ctx context.Context) ([]asset.Resource, error) {
	instances, err := c.discoverInstances(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := c.discoverBuckets(ctx)
	if err != nil {
		return nil, err
	}
	return append(instances, buckets...), nil
}

func (c *Connector) discoverInstances(ctx context.Context) ([]asset.Resource, error) {
	var out []asset.Resource
	var token *string
	for {
		resp, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{NextToken: token})
		if err != nil {
			return nil, err
		}

		for _, reservation := range resp.Reservations {
			for _, inst := range reservation.Instances {
				out = append(out, c.mapInstance(inst))
			}
		}

		if resp.NextToken == nil || aws.ToString(resp.NextToken) == "" {
			break
		}
		token = resp.NextToken
	}
	return out, nil
}

func (c *Connector) mapInstance(inst ec2types.Instance) asset.Resource {
	id := strings.TrimSpace(aws.ToString(inst.InstanceId))
	name := tagValue(inst.Tags, "Name")
	if name == "" {
		name = id
	}

	publicIP := strings.TrimSpace(aws.ToString(inst.PublicIpAddress))
	fields := map[string]any{
		"instance_type": string(inst.InstanceType),
		"public_ip":     publicIP != "",
		"tags":          tagMap(inst.Tags),
	}
	if publicIP != "" {
		fields["public_ip_address"] = publicIP
	}
	if inst.State != nil {
		fields["state"] = string(inst.State.Name)
	}

	return asset.Resource{
		ID:           id,
		Name:         name,
		ResourceType: TypeEC2Instance,
		Region:       c.region,
		Fields:       fields,
	}
}

func (c *Connector) discoverBuckets(ctx context.Context) ([]asset.Resource, error) {
	resp, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	out := make([]asset.Resource, 0, len(resp.Buckets))
	for _, bucket := range resp.Buckets {
		name := strings.TrimSpace(aws.ToString(bucket.Name))
		if name == "" {
			continue
		}

		// Buckets without an SSE configuration answer this call with an
		// error, which maps to encryption=false.
		encrypted := false
		enc, err := c.s3.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{Bucket: aws.String(name)})
		if err == nil && enc.ServerSideEncryptionConfiguration != nil {
			encrypted = len(enc.ServerSideEncryptionConfiguration.Rules) > 0
		}

		fields := map[string]any{
			"encryption": encrypted,
		}
		if bucket.CreationDate != nil {
			fields["created_at"] = bucket.CreationDate.UTC().Format(time.RFC3339)
		}

		out = append(out, asset.Resource{
			ID:           "arn:aws:s3:::" + name,
			Name:         name,
			ResourceType: TypeS3Bucket,
			Region:       c.region,
			Fields:       fields,
		})
	}
	return out, nil
}

func tagValue(tags []ec2types.Tag, key string) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == key {
			return strings.TrimSpace(aws.ToString(t.Value))
		}
	}
	return ""
}

func tagMap(tags []ec2types.Tag) map[string]any {
	out := make(map[string]any, len(tags))
	for _, t := range tags {
		k := aws.ToString(t.Key)
		if k == "" {
			continue
		}
		out[k] = aws.ToString(t.Value)
	}
	return out
}
