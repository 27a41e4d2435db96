// Package publisher fans live plays out to Redis streams.
package publisher

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/tweet"
)

// Stream names.
const (
	LiveStream  = "plays.live.baseball"
	FinalStream = "plays.final.baseball"
)

// Message types.
const (
	TypePlay  = "play"
	TypeFinal = "final"
)

// streamMaxLen caps each stream, approximately.
const streamMaxLen = 10000

// PlayMessage is the wire shape of a published play or final score.
type PlayMessage struct {
	Type          string     `json:"type"`
	GameID        string     `json:"gameId"`
	Key           string     `json:"key,omitempty"`
	Order         int        `json:"order,omitempty"`
	Inning        *int       `json:"inning"`
	Half          plays.Half `json:"half"`
	Text          string     `json:"text"`
	Outcome       string     `json:"outcome,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	RunsScored    int        `json:"runsScored"`
	AwayScore     *int       `json:"awayScore"`
	HomeScore     *int       `json:"homeScore"`
	OutsAfterPlay *int       `json:"outsAfterPlay"`
	Post          string     `json:"post"`
	PublishedAt   time.Time  `json:"publishedAt"`
}

// NewPlayMessage builds the message for one play.
func NewPlayMessage(gameID string, e plays.Event, st plays.DerivedState, game tweet.GameState, opts tweet.Options) PlayMessage {
	return PlayMessage{
		Type:          TypePlay,
		GameID:        gameID,
		Key:           e.Key,
		Order:         e.Order,
		Inning:        e.Inning,
		Half:          e.Half,
		Text:          e.Text,
		Outcome:       string(e.Result.Outcome),
		Tags:          e.Result.Tags,
		RunsScored:    e.RunsScored,
		AwayScore:     st.AwayScore,
		HomeScore:     st.HomeScore,
		OutsAfterPlay: st.OutsAfterPlay,
		Post:          tweet.FormatPlay(tweet.FromEvent(e, st, game), opts),
		PublishedAt:   time.Now().UTC(),
	}
}

// NewFinalMessage builds the message for a final score.
func NewFinalMessage(gameID string, game tweet.GameState, opts tweet.Options) PlayMessage {
	return PlayMessage{
		Type:        TypeFinal,
		GameID:      gameID,
		Inning:      game.Inning,
		Text:        game.Status,
		AwayScore:   game.AwayScore,
		HomeScore:   game.HomeScore,
		Post:        tweet.FormatFinal(game, opts),
		PublishedAt: time.Now().UTC(),
	}
}

// RedisStreamPublisher publishes messages to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
	}
}

// NewRedisPublisher connects to redisURL and creates a publisher.
func NewRedisPublisher(redisURL string) (*RedisStreamPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return NewRedisStreamPublisher(client), nil
}

// Close closes the Redis connection
func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}

// PublishPlay appends a play to the live stream.
func (p *RedisStreamPublisher) PublishPlay(ctx context.Context, msg PlayMessage) error {
	return p.publish(ctx, LiveStream, msg)
}

// PublishFinal appends a final score to the final stream.
func (p *RedisStreamPublisher) PublishFinal(ctx context.Context, msg PlayMessage) error {
	return p.publish(ctx, FinalStream, msg)
}

func (p *RedisStreamPublisher) publish(ctx context.Context, stream string, msg PlayMessage) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "encode stream message")
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"game_id":   msg.GameID,
			"type":      msg.Type,
			"data":      string(data),
			"timestamp": msg.PublishedAt.Unix(),
		},
	}).Err()
	return errors.Wrapf(err, "xadd %s", stream)
}
