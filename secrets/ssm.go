package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Prefix marks a config value as an SSM Parameter Store reference.
const Prefix = "ssm:"

type parameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type Resolver struct {
	client parameterGetter
	cache  map[string]string
}

func NewResolver(client parameterGetter) *Resolver {
	return &Resolver{client: client, cache: make(map[string]string)}
}

// IsReference reports whether value must be resolved through SSM.
func IsReference(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), Prefix)
}

// HasReferences reports whether any of the fields holds a reference.
func HasReferences(fields []*string) bool {
	for _, field := range fields {
		if field != nil && IsReference(*field) {
			return true
		}
	}
	return false
}

// Resolve returns value unchanged unless it is an "ssm:" reference.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), Prefix))
	if name == "" {
		return "", fmt.Errorf("empty ssm parameter reference")
	}
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}

	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s is empty", name)
	}

	resolved := *out.Parameter.Value
	r.cache[name] = resolved
	return resolved, nil
}

// ResolveAll rewrites every referenced field in place.
func (r *Resolver) ResolveAll(ctx context.Context, fields []*string) error {
	for _, field := range fields {
		if field == nil {
			continue
		}
		resolved, err := r.Resolve(ctx, *field)
		if err != nil {
			return err
		}
		*field = resolved
	}
	return nil
}
