package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSts struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (f *fakeSts) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return f.out, f.err
}

func Test_GetProfile(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	assert.Equal(t, "default", getProfile())

	t.Setenv("AWS_PROFILE", "bridge-dev")
	assert.Equal(t, "bridge-dev", getProfile())
}

func Test_GetCallerIdentity(t *testing.T) {
	t.Run("Should map the sts response", func(t *testing.T) {
		client := &fakeSts{out: &sts.GetCallerIdentityOutput{
			Account: aws.String("123456789012"),
			Arn:     aws.String("arn:aws:iam::123456789012:user/bridge"),
			UserId:  aws.String("AIDAEXAMPLE"),
		}}
		identity, err := GetCallerIdentityWithClient(context.Background(), client)
		require.NoError(t, err)
		assert.Equal(t, "123456789012", identity.Account)
		assert.Equal(t, "arn:aws:iam::123456789012:user/bridge", identity.Arn)
		assert.Equal(t, "AIDAEXAMPLE", identity.UserId)
	})

	t.Run("Should return sts errors", func(t *testing.T) {
		_, err := GetCallerIdentityWithClient(context.Background(), &fakeSts{err: errors.New("expired token")})
		require.Error(t, err)
	})
}
