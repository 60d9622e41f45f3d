package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

type kmsDecrypter interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

type KMSClient struct {
	Client kmsDecrypter
}

func NewKMSClient(cfg aws.Config) *KMSClient {
	return &KMSClient{Client: kms.NewFromConfig(cfg)}
}

// Decrypt decrypts a base64 ciphertext produced by the Lambda console
// encryption helpers. Those bind the LambdaFunctionName encryption context,
// which is added when the function name is known.
func (c *KMSClient) Decrypt(ctx context.Context, keyId, encodedEncryptedStr string) (string, error) {
	if encodedEncryptedStr == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(encodedEncryptedStr)
	if err != nil {
		return "", fmt.Errorf("invalid base64 ciphertext: %w", err)
	}

	input := &kms.DecryptInput{CiphertextBlob: decoded}
	if keyId != "" {
		input.KeyId = aws.String(keyId)
	}
	if fn := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); fn != "" {
		input.EncryptionContext = map[string]string{"LambdaFunctionName": fn}
	}

	output, err := c.Client.Decrypt(ctx, input)
	if err != nil {
		return "", fmt.Errorf("kms decrypt failed: %w", err)
	}

	return string(output.Plaintext), nil
}
