package logger

import (
	"bytes"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/config"
)

func TestJSONOutputAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithOutput(config.Log{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("dropped")
	log.WithField("path", "/create/").Warn("Slow request detected")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Slow request detected", entry["msg"])
	assert.Equal(t, "/create/", entry["path"])
	assert.Equal(t, "warning", entry["level"])
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithOutput(config.Log{Level: "info", Format: "text"}, &buf)
	require.NoError(t, err)

	log.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud"})
	assert.Error(t, err)
}

func TestLogstashHookShipsEntries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		n, _ := conn.Read(buf)
		received <- buf[:n]
	}()

	var out bytes.Buffer
	log, err := newWithOutput(config.Log{Level: "info", LogstashAddr: ln.Addr().String()}, &out)
	require.NoError(t, err)
	log.WithFields(logrus.Fields{"username": "alice"}).Info("Post created")

	select {
	case data := <-received:
		assert.Contains(t, string(data), "Post created")
		assert.Contains(t, string(data), `"type":"yatube"`)
	case <-time.After(2 * time.Second):
		t.Fatal("logstash listener received nothing")
	}
}
