// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Thermoquad/pumplink/pkg/rileylink"
)

func mustFrame(t *testing.T, payload ...byte) []byte {
	t.Helper()
	frame, err := rileylink.EncodePacket(payload)
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestLogPackets(t *testing.T) {
	good := mustFrame(t, 0x01, 0x02)
	bad := mustFrame(t, 0x01, 0x02)
	bad[2] ^= 0x03 // still valid 4b6b, wrong CRC

	stream := append(append(append([]byte{}, good...), bad...), 0xFF, 0xFF, 0x00)

	var out bytes.Buffer
	err := logPackets(&out, bytes.NewReader(stream))
	if !errors.Is(err, io.EOF) {
		t.Errorf("logPackets returned %v, want io.EOF", err)
	}

	got := out.String()
	for _, want := range []string{"PACKET len=2 crc=0x78", "CHECKSUM ERROR", "CODING ERROR"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWaitForPacket(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		stream := append([]byte{0xFF, 0xFF, 0x00}, mustFrame(t, 0xA7)...)
		var out bytes.Buffer
		code := waitForPacket(&out, io.Discard, bytes.NewReader(stream), time.Second)
		if code != exitOK {
			t.Fatalf("exit code = %d, want %d", code, exitOK)
		}
		if !strings.Contains(out.String(), "Payload: A7") || !strings.Contains(out.String(), "skipped 1") {
			t.Errorf("output:\n%s", out.String())
		}
	})

	t.Run("read error", func(t *testing.T) {
		code := waitForPacket(io.Discard, io.Discard, bytes.NewReader([]byte{0xFF, 0x00}), time.Second)
		if code != exitConnError {
			t.Errorf("exit code = %d, want %d", code, exitConnError)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		code := waitForPacket(io.Discard, io.Discard, pr, 50*time.Millisecond)
		if code != exitTimeout {
			t.Errorf("exit code = %d, want %d", code, exitTimeout)
		}
	})
}

// echoLink answers every write with a fixed reply frame
type echoLink struct {
	r     *io.PipeReader
	w     *io.PipeWriter
	reply []byte

	mu   sync.Mutex
	sent [][]byte
}

func newEchoLink(reply []byte) *echoLink {
	pr, pw := io.Pipe()
	return &echoLink{r: pr, w: pw, reply: reply}
}

func (l *echoLink) Read(p []byte) (int, error) {
	return l.r.Read(p)
}

func (l *echoLink) Write(p []byte) (int, error) {
	l.mu.Lock()
	l.sent = append(l.sent, append([]byte{}, p...))
	l.mu.Unlock()
	if l.reply != nil {
		go l.w.Write(l.reply)
	}
	return len(p), nil
}

func TestSendAndWait(t *testing.T) {
	frame := mustFrame(t, 0x01, 0x02)

	t.Run("replies", func(t *testing.T) {
		link := newEchoLink(mustFrame(t, 0x06))
		defer link.w.Close()

		var out bytes.Buffer
		replies := sendAndWait(&out, link, frame, 2, time.Second)
		if replies != 2 {
			t.Errorf("replies = %d, want 2\n%s", replies, out.String())
		}
		if len(link.sent) != 2 || !bytes.Equal(link.sent[0], frame) {
			t.Errorf("sent %d frames, first % X", len(link.sent), link.sent)
		}
		if !strings.Contains(out.String(), "payload=06") {
			t.Errorf("output:\n%s", out.String())
		}
	})

	t.Run("timeout", func(t *testing.T) {
		link := newEchoLink(nil)
		defer link.w.Close()

		var out bytes.Buffer
		if replies := sendAndWait(&out, link, frame, 1, 50*time.Millisecond); replies != 0 {
			t.Errorf("replies = %d, want 0", replies)
		}
		if !strings.Contains(out.String(), "TIMEOUT") {
			t.Errorf("output:\n%s", out.String())
		}
	})
}

// lateLink answers only the first write, after delay
type lateLink struct {
	*echoLink
	delay  time.Duration
	writes int
}

func (l *lateLink) Write(p []byte) (int, error) {
	l.writes++
	if l.writes == 1 {
		go func() {
			time.Sleep(l.delay)
			l.w.Write(l.reply)
		}()
	}
	return len(p), nil
}

func TestSendAndWait_LateReply(t *testing.T) {
	link := &lateLink{echoLink: newEchoLink(mustFrame(t, 0x01)), delay: 150 * time.Millisecond}
	defer link.w.Close()

	var out bytes.Buffer
	replies := sendAndWait(&out, link, mustFrame(t, 0x02), 2, 100*time.Millisecond)
	if replies != 0 {
		t.Errorf("replies = %d, want 0\n%s", replies, out.String())
	}
	if got := strings.Count(out.String(), "TIMEOUT"); got != 2 {
		t.Errorf("got %d timeouts, want 2:\n%s", got, out.String())
	}
	if strings.Contains(out.String(), "REPLY") {
		t.Errorf("late reply credited to a later send:\n%s", out.String())
	}
}

func TestSendAndWait_CorruptFrameThenReply(t *testing.T) {
	bad := mustFrame(t, 0x01, 0x02)
	bad[2] ^= 0x03
	link := newEchoLink(append(bad, mustFrame(t, 0x06)...))
	defer link.w.Close()

	var out bytes.Buffer
	if replies := sendAndWait(&out, link, mustFrame(t, 0x02), 1, time.Second); replies != 1 {
		t.Errorf("replies = %d, want 1\n%s", replies, out.String())
	}
	if !strings.Contains(out.String(), "CHECKSUM ERROR") || !strings.Contains(out.String(), "payload=06") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestSendCommand_Validation(t *testing.T) {
	t.Cleanup(func() { sendCount, sendTimeout = 1, 5 })

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"send", "01", "--count", "0"}, "--count"},
		{[]string{"send", "01", "--count=-3"}, "--count"},
		{[]string{"send", "01", "--count", "1", "--timeout", "0"}, "--timeout"},
	}
	for _, tt := range tests {
		sendCount, sendTimeout = 1, 5
		_, err := execute(t, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: err = %v, want mention of %s", tt.args, err, tt.want)
		}
	}
}

func TestWebSocketConnection(t *testing.T) {
	frame := mustFrame(t, 0x0A, 0x0B)
	authCh := make(chan string, 1)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCh <- r.Header.Get("Authorization")
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		// Text frames are not radio traffic and must be skipped
		_ = c.WriteMessage(websocket.TextMessage, []byte("hello"))
		_ = c.WriteMessage(websocket.BinaryMessage, frame[:3])
		_ = c.WriteMessage(websocket.BinaryMessage, frame[3:])

		// Echo one binary message back
		if mt, data, err := c.ReadMessage(); err == nil {
			_ = c.WriteMessage(mt, data)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := OpenWebSocketConnection(url, "admin", "secret", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}
	defer conn.Close()

	if gotAuth := <-authCh; !strings.HasPrefix(gotAuth, "Basic ") {
		t.Errorf("Authorization header = %q", gotAuth)
	}

	var packets []*rileylink.Packet
	dec := rileylink.NewDecoder()
	err = readPackets(conn, dec, func(p *rileylink.Packet, err error) bool {
		if err != nil {
			t.Errorf("decode error: %v", err)
			return false
		}
		packets = append(packets, p)
		return false
	})
	if err != nil {
		t.Fatalf("readPackets: %v", err)
	}
	if len(packets) != 1 || !bytes.Equal(packets[0].Payload(), []byte{0x0A, 0x0B}) {
		t.Fatalf("packets = %v", packets)
	}

	if _, err := conn.Write([]byte{0x42}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	buf := make([]byte, 8)
	n, err := conn.Read(buf)
	if err != nil || n != 1 || buf[0] != 0x42 {
		t.Errorf("echo = % X, %v", buf[:n], err)
	}
}

func TestOpenWebSocketConnection_BadScheme(t *testing.T) {
	if _, err := OpenWebSocketConnection("http://localhost/", "", "", false); err == nil {
		t.Error("expected error for http:// URL")
	}
}
