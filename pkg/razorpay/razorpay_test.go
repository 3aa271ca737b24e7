package razorpay

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSignIsDeterministicAndKeyed(t *testing.T) {
	got := Sign("secret", "order_abc", "pay_xyz")
	require.Len(t, got, 64)
	require.Equal(t, got, Sign("secret", "order_abc", "pay_xyz"))
	require.NotEqual(t, got, Sign("other", "order_abc", "pay_xyz"))
	require.NotEqual(t, got, Sign("secret", "order_abc", "pay_other"))
}

func TestVerifySignature(t *testing.T) {
	client := New(Config{KeyID: "rzp_test_key", KeySecret: "secret"}, zerolog.Nop())

	signature := Sign("secret", "order_abc", "pay_xyz")
	require.True(t, client.VerifySignature("order_abc", "pay_xyz", signature))
	require.False(t, client.VerifySignature("order_abc", "pay_xyz", "tampered"))
	require.False(t, client.VerifySignature("order_other", "pay_xyz", signature))
}

func TestConfigured(t *testing.T) {
	require.False(t, New(Config{}, zerolog.Nop()).Configured())
	require.False(t, New(Config{KeyID: "rzp_test_key"}, zerolog.Nop()).Configured())
	require.True(t, New(Config{KeyID: "rzp_test_key", KeySecret: "secret"}, zerolog.Nop()).Configured())
	require.Equal(t, "rzp_test_key", New(Config{KeyID: "rzp_test_key", KeySecret: "secret"}, zerolog.Nop()).KeyID())
}
