package queue

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis speaks just enough RESP2 for the inspector's commands
type fakeRedis struct {
	ln     net.Listener
	mu     sync.Mutex
	lists  map[string]int64
	zsets  map[string][]string
	hashes map[string]map[string]string
	seen   []string
}

func newFakeRedis(t *testing.T) *fakeRedis {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeRedis{
		ln:     ln,
		lists:  map[string]int64{},
		zsets:  map[string][]string{},
		hashes: map[string]map[string]string{},
	}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeRedis) client(t *testing.T) *redis.Client {
	c := redis.NewClient(&redis.Options{
		Addr:            f.ln.Addr().String(),
		Protocol:        2,
		DisableIdentity: true,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, f.reply(args)); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil {
		return nil, err
	}
	args := make([]string, n)
	for i := range args {
		if _, err := r.ReadString('\n'); err != nil {
			return nil, err
		}
		arg, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		args[i] = strings.TrimSuffix(arg, "\r\n")
	}
	return args, nil
}

func (f *fakeRedis) reply(args []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := strings.ToUpper(args[0])
	f.seen = append(f.seen, cmd)
	switch cmd {
	case "PING":
		return "+PONG\r\n"
	case "LLEN":
		return fmt.Sprintf(":%d\r\n", f.lists[args[1]])
	case "ZCARD":
		return fmt.Sprintf(":%d\r\n", len(f.zsets[args[1]]))
	case "ZREVRANGE":
		members := f.zsets[args[1]]
		start, _ := strconv.Atoi(args[2])
		stop, _ := strconv.Atoi(args[3])
		var out []string
		for i := len(members) - 1 - start; i >= 0 && i >= len(members)-1-stop; i-- {
			out = append(out, members[i])
		}
		return bulkArray(out)
	case "HGETALL":
		var out []string
		for k, v := range f.hashes[args[1]] {
			out = append(out, k, v)
		}
		return bulkArray(out)
	default:
		return "-ERR unknown command '" + args[0] + "'\r\n"
	}
}

func bulkArray(items []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(items))
	for _, s := range items {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(s), s)
	}
	return b.String()
}

func TestNewRedisInspector(t *testing.T) {
	t.Run("parses the url", func(t *testing.T) {
		i, err := NewRedisInspector(Config{URL: "redis://:secret@localhost:6379/2", Names: []string{"email"}})
		require.NoError(t, err)
		defer i.Close()

		assert.Equal(t, "bull", i.prefix)
		assert.Equal(t, []string{"email"}, i.Names())
	})

	t.Run("rejects a bad url", func(t *testing.T) {
		_, err := NewRedisInspector(Config{URL: "http://localhost"})
		assert.Error(t, err)
	})
}

func TestRedisInspector_Queues(t *testing.T) {
	f := newFakeRedis(t)
	f.lists["bull:email:wait"] = 3
	f.lists["bull:email:active"] = 1
	f.lists["bull:download:paused"] = 2
	f.zsets["bull:email:delayed"] = []string{"9"}
	f.zsets["bull:email:completed"] = []string{"1", "2", "3", "4"}
	f.zsets["bull:download:failed"] = []string{"5", "6"}

	i := NewRedisInspectorWithClient(f.client(t), "bull", []string{"email", "download"})
	require.NoError(t, i.Ping(context.Background()))

	got, err := i.Queues(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Summary{Name: "email", Counts: Counts{Waiting: 3, Active: 1, Delayed: 1, Completed: 4}}, got[0])
	assert.Equal(t, Summary{Name: "download", Counts: Counts{Paused: 2, Failed: 2}}, got[1])
	assert.Equal(t, int64(9), got[0].Counts.Total())
}

func TestRedisInspector_FailedJobs(t *testing.T) {
	f := newFakeRedis(t)
	f.zsets["bull:email:failed"] = []string{"1", "2", "3"}
	f.hashes["bull:email:1"] = map[string]string{"name": "__default__", "failedReason": "old", "timestamp": "100"}
	f.hashes["bull:email:3"] = map[string]string{"name": "welcome", "failedReason": "smtp timeout", "timestamp": "300"}

	i := NewRedisInspectorWithClient(f.client(t), "bull", []string{"email"})

	t.Run("newest first, skipping vanished jobs", func(t *testing.T) {
		jobs, err := i.FailedJobs(context.Background(), "email", 10)
		require.NoError(t, err)
		assert.Equal(t, []FailedJob{
			{ID: "3", Name: "welcome", FailedReason: "smtp timeout", Timestamp: 300},
			{ID: "1", Name: "__default__", FailedReason: "old", Timestamp: 100},
		}, jobs)
	})

	t.Run("honors the limit", func(t *testing.T) {
		jobs, err := i.FailedJobs(context.Background(), "email", 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "3", jobs[0].ID)
	})

	t.Run("unknown queue", func(t *testing.T) {
		_, err := i.FailedJobs(context.Background(), "nope", 10)
		assert.ErrorIs(t, err, ErrUnknownQueue)
	})
}

func TestRedisInspector_FailedJobsEmpty(t *testing.T) {
	f := newFakeRedis(t)
	i := NewRedisInspectorWithClient(f.client(t), "", []string{"email"})

	jobs, err := i.FailedJobs(context.Background(), "email", 0)
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestRedisInspector_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	i, err := NewRedisInspector(Config{URL: "redis://" + addr, Names: []string{"email"}})
	require.NoError(t, err)
	defer i.Close()

	_, err = i.Queues(context.Background())
	assert.Error(t, err)
}
