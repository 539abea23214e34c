package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterReader is the subset of the SSM client used to read configuration
type ParameterReader interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// NewSSMClient builds an SSM client from the default AWS credential chain
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// LoadSSM copies every parameter under prefix into cfg. The last path element becomes the key,
// so /fieldlens/prod/RESEND_API_KEY is stored as RESEND_API_KEY. Values already present in
// cfg win over parameters.
func LoadSSM(ctx context.Context, client ParameterReader, cfg map[string]string, prefix string) (int, error) {
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	loaded := 0
	for {
		out, err := client.GetParametersByPath(ctx, input)
		if err != nil {
			return loaded, fmt.Errorf("failed to read SSM parameters under %s: %w", prefix, err)
		}

		for _, p := range out.Parameters {
			key := strings.ToUpper(path.Base(aws.ToString(p.Name)))
			if _, exists := cfg[key]; exists && cfg[key] != "" {
				continue
			}
			cfg[key] = aws.ToString(p.Value)
			loaded++
		}

		if out.NextToken == nil || *out.NextToken == "" {
			break
		}
		input.NextToken = out.NextToken
	}

	log.Info().Str("path", prefix).Int("count", loaded).Msg("Loaded configuration from SSM")
	return loaded, nil
}
