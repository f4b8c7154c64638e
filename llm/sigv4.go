// Package llm - sigv4.go signs requests for AWS-hosted OpenAI-compatible
// endpoints.
//
// Provides an http.RoundTripper that signs requests with AWS SigV4 before
// sending. Pass it as the transport of Config.HTTPClient; a TrackedClient
// wraps it without disturbing the signing.
package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const (
	defaultSigningService = "bedrock"
	defaultSigningRegion  = "us-east-1"
)

// SigV4Transport is an http.RoundTripper that signs requests with AWS SigV4.
type SigV4Transport struct {
	credentials aws.CredentialsProvider
	region      string
	service     string
	signer      *v4.Signer
	base        http.RoundTripper
}

// NewSigV4Transport creates a signing transport using the standard AWS
// credential chain. Credentials are resolved once up front so
// misconfiguration surfaces at construction, not on the first call.
func NewSigV4Transport(ctx context.Context, region, service string, base http.RoundTripper) (*SigV4Transport, error) {
	if region == "" {
		region = defaultSigningRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("failed to resolve AWS credentials: %w", err)
	}

	return NewSigV4TransportWithCredentials(cfg.Credentials, region, service, base), nil
}

// NewSigV4TransportWithCredentials creates a signing transport with an
// explicit credentials provider. Region defaults to us-east-1, service to
// "bedrock", and a nil base to http.DefaultTransport.
func NewSigV4TransportWithCredentials(creds aws.CredentialsProvider, region, service string, base http.RoundTripper) *SigV4Transport {
	if region == "" {
		region = defaultSigningRegion
	}
	if service == "" {
		service = defaultSigningService
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &SigV4Transport{
		credentials: creds,
		region:      region,
		service:     service,
		signer:      v4.NewSigner(),
		base:        base,
	}
}

// RoundTrip implements http.RoundTripper. The payload is buffered so it can
// be hashed for the signature and replayed on send.
func (t *SigV4Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	payload, err := bufferBody(req)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body for signing: %w", err)
	}

	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve AWS credentials: %w", err)
	}

	digest := sha256.Sum256(payload)
	err = t.signer.SignHTTP(req.Context(), creds, req, hex.EncodeToString(digest[:]), t.service, t.region, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	if payload != nil {
		req.Body = io.NopCloser(bytes.NewReader(payload))
	}
	return t.base.RoundTrip(req)
}

// bufferBody drains the request body and replaces it with a replayable
// reader. A body-less request yields nil.
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

var _ http.RoundTripper = (*SigV4Transport)(nil)
