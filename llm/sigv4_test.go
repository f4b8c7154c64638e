package llm_test

// SigV4 Transport Tests - Local Signing and Capture Composition
//
// Signing with static credentials is a pure local computation, so these run
// without AWS access. Verifies the authorization header shape, body
// replay, defaults, and that a capture transport can wrap the signer.

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normalform/request-capture/capture"
	"github.com/normalform/request-capture/history"
	"github.com/normalform/request-capture/llm"
)

func staticCreds() credentials.StaticCredentialsProvider {
	return credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "test-secret", "")
}

func okResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     http.Header{},
	}
}

// TestSigV4Transport_SignsRequests verifies the outgoing request carries a
// SigV4 authorization header and the payload reaches the base transport
// unmodified.
func TestSigV4Transport_SignsRequests(t *testing.T) {
	var gotAuth, gotBody string
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		data, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		gotBody = string(data)
		return okResponse(), nil
	})

	transport := llm.NewSigV4TransportWithCredentials(staticCreds(), "us-east-1", "bedrock", base)

	body := `{"model":"anthropic.claude-3","messages":[]}`
	req, err := http.NewRequest(http.MethodPost, "https://bedrock-runtime.us-east-1.amazonaws.com/model/invoke", strings.NewReader(body))
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotAuth, "AWS4-HMAC-SHA256")
	assert.Contains(t, gotAuth, "Credential=AKIDEXAMPLE")
	assert.Contains(t, gotAuth, "Signature=")
	assert.NotEmpty(t, req.Header.Get("X-Amz-Date"))
	assert.Equal(t, body, gotBody)
}

// TestSigV4Transport_Defaults verifies empty region and service fall back
// to us-east-1 and bedrock in the credential scope.
func TestSigV4Transport_Defaults(t *testing.T) {
	var gotAuth string
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return okResponse(), nil
	})

	transport := llm.NewSigV4TransportWithCredentials(staticCreds(), "", "", base)

	req, err := http.NewRequest(http.MethodGet, "https://bedrock.us-east-1.amazonaws.com/foundation-models", nil)
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotAuth, "/us-east-1/bedrock/aws4_request")
}

// TestSigV4Transport_ComposesWithCapture verifies a capture transport can
// wrap the signer: the record is taken before signing, so no authorization
// material is captured, while the signed header still reaches the wire.
func TestSigV4Transport_ComposesWithCapture(t *testing.T) {
	var gotAuth string
	base := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return okResponse(), nil
	})

	signing := llm.NewSigV4TransportWithCredentials(staticCreds(), "us-west-2", "bedrock", base)
	store := history.New(3)
	interceptor := capture.NewInterceptor(store, capture.Options{})
	transport := capture.NewTransport(interceptor, signing)

	req, err := http.NewRequest(http.MethodPost, "https://bedrock-runtime.us-west-2.amazonaws.com/model/invoke", strings.NewReader(`{"model":"anthropic.claude-3"}`))
	require.NoError(t, err)

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, gotAuth, "AWS4-HMAC-SHA256")

	require.Equal(t, 1, store.Len())
	rec, ok := store.Last()
	require.True(t, ok)
	require.NotNil(t, rec.Model)
	assert.Equal(t, "anthropic.claude-3", *rec.Model)
	assert.NotContains(t, rec.Headers, "Authorization")
}
