package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("SECRET_KEY", "s3cret")

	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	req.NoError(err)
	req.Equal("s3cret", config.SecretKey)
	req.Equal(3000, config.Port)
	req.Equal(100, config.SubscriberBufferSize)
	req.Equal(10*time.Second, config.KeepAliveInterval)
	req.Equal(24*time.Hour, config.AuthTokenDuration)
	req.Equal("0.0.0.0:3000", config.Address())
}

func TestLoadConfig_Requires_Secret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_ = os.Unsetenv("SECRET_KEY")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
}

func TestLoadConfig_From_File(t *testing.T) {
	req := require.New(t)
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("PORT", "")
	_ = os.Unsetenv("PORT")
	t.Setenv("SUBSCRIBER_BUFFER_SIZE", "")
	_ = os.Unsetenv("SUBSCRIBER_BUFFER_SIZE")

	path := filepath.Join(t.TempDir(), ".env")
	req.NoError(os.WriteFile(path, []byte("PORT=4000\nSECRET_KEY=from-file\nSUBSCRIBER_BUFFER_SIZE=8\n"), 0o600))

	config, err := LoadConfig(path)

	req.NoError(err)
	req.Equal(4000, config.Port)
	req.Equal(8, config.SubscriberBufferSize)
	// The environment wins over the file
	req.Equal("from-env", config.SecretKey)
}

func TestLoadConfig_Rejects_Zero_Buffer(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("SUBSCRIBER_BUFFER_SIZE", "0")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))

	require.Error(t, err)
}
