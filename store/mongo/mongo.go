// Package mongo stores guilds in two collections, `configs` and `counters`,
// one document per guild in each.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/store"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoStore struct {
	*guildStore
	*counterStore

	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB. Call Init to create indexes before use.
func New(ctx context.Context, uri, database string) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	db := client.Database(database)
	return &mongoStore{
		guildStore:   &guildStore{client: client, db: db, col: db.Collection("configs")},
		counterStore: &counterStore{client: client, db: db, col: db.Collection("counters")},
		client:       client,
		db:           db,
	}, nil
}

func (m *mongoStore) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	for _, col := range []*mongo.Collection{m.guildStore.col, m.counterStore.col} {
		if _, err := col.Indexes().CreateOne(ctx, index); err != nil {
			return fmt.Errorf("create index on %v: %w", col.Name(), err)
		}
	}

	return nil
}

func (m *mongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// LoadAll joins both collections. Guilds missing either document are skipped.
func (m *mongoStore) LoadAll(ctx context.Context) (map[discord.GuildID]*ledger.Ledger, error) {
	log := ctxzap.Extract(ctx)

	guilds, err := m.guilds(ctx)
	if err != nil {
		return nil, err
	}

	counters, err := m.counters(ctx)
	if err != nil {
		return nil, err
	}

	ledgers := make(map[discord.GuildID]*ledger.Ledger, len(guilds))
	for id, guild := range guilds {
		log := log.With("guild_id", id)

		c, ok := counters[id]
		if !ok {
			log.Warn("skipping guild without counters")
			continue
		}

		cfg, err := guild.Config()
		if err != nil {
			log.With("error", err).Warn("skipping guild with a broken config")
			continue
		}

		l, err := c.Ledger(cfg)
		if err != nil {
			log.With("error", err).Warn("skipping guild with broken counters")
			continue
		}

		ledgers[id] = l
	}

	for id := range counters {
		if _, ok := guilds[id]; !ok {
			log.With("guild_id", id).Warn("skipping guild without config")
		}
	}

	return ledgers, nil
}

func parseGuildID(id store.ID) (discord.GuildID, bool) {
	sf, err := discord.ParseSnowflake(string(id))
	if err != nil || !sf.IsValid() {
		return 0, false
	}

	return discord.GuildID(sf), true
}
