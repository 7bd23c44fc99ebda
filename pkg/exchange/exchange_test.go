package exchange

import (
	"bytes"
	"context"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ecstasoy/hellowire/pkg/message"
	"github.com/ecstasoy/hellowire/pkg/transport"
)

func TestParseVariant(t *testing.T) {
	tests := map[string]Variant{
		"":                        SingleShot,
		"single-shot":             SingleShot,
		"Single":                  SingleShot,
		"repeat":                  RepeatUntilDisconnect,
		" repeat-until-disconnect": RepeatUntilDisconnect,
	}

	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			got, err := ParseVariant(input)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}

	_, err := ParseVariant("twice")
	require.EqualError(t, err, `unknown exchange variant "twice"`)
}

func TestVariant_String(t *testing.T) {
	require.Equal(t, "single-shot", SingleShot.String())
	require.Equal(t, "repeat", RepeatUntilDisconnect.String())
	require.Equal(t, "unknown(7)", Variant(7).String())
}

func TestNew_UnknownVariant(t *testing.T) {
	_, err := New(Variant(7))
	require.EqualError(t, err, "unknown exchange variant unknown(7)")
}

func TestSingleShot_TwoReplies(t *testing.T) {
	logs := new(bytes.Buffer)
	handler, err := New(SingleShot, WithLogger(zerolog.New(logs)))
	require.NoError(t, err)

	client, errc := serve(t, handler)

	_, err = client.Write([]byte(message.Request))
	require.NoError(t, err)

	// the server closes once both replies are out
	data, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Equal(t, message.Reply+message.SecondReply, string(data))

	require.NoError(t, <-errc)
	require.Contains(t, logs.String(), `"message":"message from client"`)
	require.Contains(t, logs.String(), `"data":"Hello from client"`)
}

func TestSingleShot_TrailingNUL(t *testing.T) {
	logs := new(bytes.Buffer)
	handler, err := New(SingleShot, WithLogger(zerolog.New(logs)))
	require.NoError(t, err)

	client, errc := serve(t, handler)

	_, err = client.Write(message.RequestBytes(message.Request, true))
	require.NoError(t, err)

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Equal(t, message.Reply+message.SecondReply, string(data))
	require.NoError(t, <-errc)
	require.Contains(t, logs.String(), `"data":"Hello from client"`)
}

func TestSingleShot_NoData(t *testing.T) {
	logs := new(bytes.Buffer)
	handler, err := New(SingleShot, WithLogger(zerolog.New(logs)))
	require.NoError(t, err)

	client, errc := serve(t, handler)
	require.NoError(t, client.(*net.TCPConn).CloseWrite())

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Empty(t, data)

	require.NoError(t, <-errc)
	require.Contains(t, logs.String(), `"message":"no data received from client"`)
}

func TestSingleShot_ReadError(t *testing.T) {
	handler, err := New(SingleShot, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	server, _ := pair(t)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(-time.Second)))

	err = handler.Handle(context.Background(), server)
	require.Equal(t, transport.KindRead, transport.KindOf(err))
	require.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestSingleShot_CustomReplies(t *testing.T) {
	handler, err := New(SingleShot, WithLogger(zerolog.Nop()), WithReplies("A", "B"))
	require.NoError(t, err)

	client, errc := serve(t, handler)

	_, err = client.Write([]byte("x"))
	require.NoError(t, err)

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Equal(t, "AB", string(data))
	require.NoError(t, <-errc)
}

func TestRepeat_ReplyPerMessage(t *testing.T) {
	handler, err := New(RepeatUntilDisconnect, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	client, errc := serve(t, handler)

	for i := 0; i < 3; i++ {
		_, err = client.Write([]byte(message.Request))
		require.NoError(t, err)

		reply := make([]byte, len(message.Reply))
		_, err = io.ReadFull(client, reply)
		require.NoError(t, err)
		require.Equal(t, message.Reply, string(reply))
	}

	require.NoError(t, client.(*net.TCPConn).CloseWrite())
	require.NoError(t, <-errc)

	rest, err := io.ReadAll(client)
	require.NoError(t, err)
	require.Empty(t, rest)
}

func TestRepeat_SmallBuffer(t *testing.T) {
	handler, err := New(RepeatUntilDisconnect, WithLogger(zerolog.Nop()), WithBufferSize(4))
	require.NoError(t, err)

	client, errc := serve(t, handler)

	_, err = client.Write([]byte("12345678"))
	require.NoError(t, err)
	require.NoError(t, client.(*net.TCPConn).CloseWrite())
	require.NoError(t, <-errc)

	// every read gets its own reply, and a 4-byte buffer needs at least two
	data, err := io.ReadAll(client)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 2*len(message.Reply))
	require.Zero(t, len(data)%len(message.Reply))
	require.Equal(t, bytes.Repeat([]byte(message.Reply), len(data)/len(message.Reply)), data)
}

func TestRepeat_ContextDone(t *testing.T) {
	handler, err := New(RepeatUntilDisconnect, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	server, _ := pair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = handler.Handle(ctx, server)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRepeat_ReadError(t *testing.T) {
	handler, err := New(RepeatUntilDisconnect, WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	server, _ := pair(t)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(-time.Second)))

	err = handler.Handle(context.Background(), server)
	require.Equal(t, transport.KindRead, transport.KindOf(err))
}

// -----------------------------------------------------------------------------
// Utility functions

// pair returns both ends of a loopback TCP connection.
func pair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err := net.Dial("tcp4", listener.Addr().String())
	require.NoError(t, err)

	server, ok := <-accepted
	require.True(t, ok)

	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	return server, client
}

// serve runs handler on the server end and closes it afterwards, like the
// listener does.
func serve(t *testing.T, handler transport.Handler) (net.Conn, <-chan error) {
	t.Helper()

	server, client := pair(t)
	require.NoError(t, client.SetDeadline(time.Now().Add(5*time.Second)))

	errc := make(chan error, 1)
	go func() {
		err := handler.Handle(context.Background(), server)
		server.Close()
		errc <- err
	}()

	return client, errc
}
