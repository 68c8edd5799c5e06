// Package messaging mirrors light and input state into a Redis hash.
package messaging

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweeney/aux-lights/internal/logger"
	"github.com/sweeney/aux-lights/internal/logic"
)

// Hash is the Redis hash and pub/sub channel name.
const Hash = "aux-lights"

const (
	// RetryInterval is the pause after a failed write before the next attempt.
	RetryInterval = 5 * time.Second

	dialTimeout  = 250 * time.Millisecond
	writeTimeout = time.Second
)

// Mirror receives state after every control loop iteration.
type Mirror interface {
	// PublishLights records the output state. It must not block on the network.
	PublishLights(st logic.State) error

	// PublishInputs records the sampled digital inputs.
	PublishInputs(snap logic.Snapshot) error

	// IsConnected reports whether the last write reached the server.
	IsConnected() bool

	// Close stops writing and releases the connection.
	Close() error
}

// writeFunc stores the changed fields and announces them.
type writeFunc func(ctx context.Context, changed []string, fields map[string]string) error

// RedisClient writes changed fields to the hash and announces them on the channel.
// Publishing only records the wanted field values; a background writer flushes
// them, so an unreachable server never delays the caller.
type RedisClient struct {
	client *redis.Client
	logger *logger.Logger
	write  writeFunc
	retry  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu    sync.Mutex
	want  map[string]string
	last  map[string]string
	ok    bool
	known bool // ok has been reported at least once
}

// NewRedisClient creates a client for addr and starts its writer.
func NewRedisClient(addr string, l *logger.Logger) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		MaxRetries:   -1,
		DialTimeout:  dialTimeout,
		ReadTimeout:  writeTimeout,
		WriteTimeout: writeTimeout,
	})
	r := newRedisClient(client, l, RetryInterval)
	r.write = r.exec
	r.start()
	return r
}

func newRedisClient(client *redis.Client, l *logger.Logger, retry time.Duration) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: client,
		logger: l,
		retry:  retry,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		want:   make(map[string]string),
		last:   make(map[string]string),
	}
}

func (r *RedisClient) start() {
	go r.run()
}

// Connect checks the server with a PING. A failure is not fatal: the writer
// keeps retrying.
func (r *RedisClient) Connect() error {
	r.logger.Infof("connecting to %s", r.client.Options().Addr)

	ctx, cancel := context.WithTimeout(r.ctx, writeTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.setConnected(false, err)
		return fmt.Errorf("redis connection failed: %w", err)
	}
	r.setConnected(true, nil)
	return nil
}

// PublishLights records the light, mode and terminator fields.
func (r *RedisClient) PublishLights(st logic.State) error {
	r.update(LightFields(st))
	return nil
}

// PublishInputs records the door, ignition and reading light fields.
func (r *RedisClient) PublishInputs(snap logic.Snapshot) error {
	r.update(InputFields(snap))
	return nil
}

func (r *RedisClient) update(fields map[string]string) {
	r.mu.Lock()
	for f, v := range fields {
		r.want[f] = v
	}
	r.mu.Unlock()
	r.signal()
}

func (r *RedisClient) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *RedisClient) run() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.wake:
		}
		if err := r.flush(); err == nil {
			continue
		}
		select {
		case <-r.ctx.Done():
			return
		case <-time.After(r.retry):
			r.signal()
		}
	}
}

// flush writes every wanted field that differs from the last written value.
func (r *RedisClient) flush() error {
	r.mu.Lock()
	changed := ChangedFields(r.last, r.want)
	fields := make(map[string]string, len(changed))
	for _, f := range changed {
		fields[f] = r.want[f]
	}
	r.mu.Unlock()
	if len(changed) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(r.ctx, writeTimeout)
	defer cancel()
	if err := r.write(ctx, changed, fields); err != nil {
		r.setConnected(false, err)
		return err
	}

	r.mu.Lock()
	for f, v := range fields {
		r.last[f] = v
	}
	r.mu.Unlock()
	r.setConnected(true, nil)
	r.logger.Debugf("published %v", changed)
	return nil
}

func (r *RedisClient) exec(ctx context.Context, changed []string, fields map[string]string) error {
	timestamp := time.Now().Format(time.RFC3339)
	pipe := r.client.Pipeline()
	for _, f := range changed {
		pipe.HSet(ctx, Hash, f, fields[f])
	}
	pipe.HSet(ctx, Hash, "state:timestamp", timestamp)
	for _, f := range changed {
		pipe.Publish(ctx, Hash, f)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// IsConnected reports whether the last round trip succeeded.
func (r *RedisClient) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ok
}

// setConnected records the connection state and logs only when it changes.
func (r *RedisClient) setConnected(ok bool, err error) {
	r.mu.Lock()
	changed := !r.known || r.ok != ok
	r.ok, r.known = ok, true
	r.mu.Unlock()
	if !changed {
		return
	}
	if ok {
		r.logger.Infof("connected")
	} else {
		r.logger.Warnf("unavailable, retrying every %v: %v", r.retry, err)
	}
}

// Close stops the writer and closes the connection pool.
func (r *RedisClient) Close() error {
	r.cancel()
	<-r.done
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// LightFields renders the output state as hash fields.
func LightFields(st logic.State) map[string]string {
	return map[string]string{
		"mirror":     onOff(st.MirrorOn),
		"edge":       onOff(st.EdgeOn),
		"red":        onOff(st.RedOn),
		"rgb":        onOff(st.RGBOn),
		"interior":   modeField(st.Interior),
		"exterior":   modeField(st.Exterior),
		"terminator": onOff(st.Terminator),
	}
}

// InputFields renders the digital inputs as hash fields.
func InputFields(snap logic.Snapshot) map[string]string {
	door := "open"
	if snap.DoorClosed {
		door = "closed"
	}
	return map[string]string{
		"door":          door,
		"ignition":      onOff(snap.Ignition),
		"reading-light": onOff(snap.ReadingLight),
	}
}

// ChangedFields returns the sorted names of fields whose value differs from last.
func ChangedFields(last, fields map[string]string) []string {
	var changed []string
	for f, v := range fields {
		if prev, ok := last[f]; !ok || prev != v {
			changed = append(changed, f)
		}
	}
	sort.Strings(changed)
	return changed
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func modeField(m logic.Mode) string {
	switch m {
	case logic.Mode1:
		return "mode1"
	case logic.Mode2:
		return "mode2"
	}
	return "disabled"
}

// Noop is used when no Redis address is configured. It never connects.
type Noop struct{}

func (Noop) PublishLights(logic.State) error    { return nil }
func (Noop) PublishInputs(logic.Snapshot) error { return nil }
func (Noop) IsConnected() bool                  { return false }
func (Noop) Close() error                       { return nil }
