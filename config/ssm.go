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

type ssmAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM overlays every parameter stored under SSM_PARAMETER_PATH onto the
// config map. Parameter names are reduced to their last path segment, so
// "/portfolio/prod/DATABASE_URL" becomes "DATABASE_URL". Values already
// present in the environment win.
func LoadSSM(ctx context.Context, c map[string]string) error {
	parameterPath := GetString(c, "SSM_PARAMETER_PATH", "")
	if parameterPath == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(GetString(c, "AWS_REGION", "us-east-1")))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	return loadParameters(ctx, ssm.NewFromConfig(awsCfg), parameterPath, c)
}

func loadParameters(ctx context.Context, client ssmAPI, parameterPath string, c map[string]string) error {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("read ssm parameters under %s: %w", parameterPath, err)
		}

		for _, p := range page.Parameters {
			key := path.Base(strings.TrimSuffix(aws.ToString(p.Name), "/"))
			if key == "" || key == "." || key == "/" {
				continue
			}
			if existing, ok := c[key]; ok && existing != "" {
				continue
			}
			c[key] = aws.ToString(p.Value)
			loaded++
		}
	}

	log.Info().Str("path", parameterPath).Int("count", loaded).Msg("Loaded configuration from SSM")
	return nil
}
