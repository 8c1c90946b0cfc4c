// Package common holds the AWS setup shared by the SQS, DynamoDB and S3 clients.
package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// AWSConfig selects where the pipeline's AWS clients talk to. Empty fields leave the
// decision to the environment (AWS_REGION, AWS_PROFILE, instance role).
type AWSConfig struct {
	Region  string
	Profile string
}

// options turns the overrides into loader options.
func (c AWSConfig) options() []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	return opts
}

// LoadAWS resolves the one aws.Config a process builds its queue, table and object
// store clients from.
func LoadAWS(ctx context.Context, cfg AWSConfig) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx, cfg.options()...)
}
