package ws

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioSinkWritesBinaryFrames(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewAudioSink(dir)
	require.NoError(t, err)

	srv := httptest.NewServer(sink)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	require.NoError(t, err)

	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte("chunk-1")))
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not audio")))
	require.NoError(t, conn.Write(ctx, websocket.MessageBinary, []byte("chunk-2")))
	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "done"))

	var files []string
	require.Eventually(t, func() bool {
		files, err = filepath.Glob(filepath.Join(dir, "audio_*.mp3"))
		if err != nil || len(files) != 1 {
			return false
		}
		data, readErr := os.ReadFile(files[0])
		return readErr == nil && string(data) == "chunk-1chunk-2"
	}, 5*time.Second, 50*time.Millisecond)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "chunk-1chunk-2", string(data))
}

func TestAudioSinkCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audio")
	_, err := NewAudioSink(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
