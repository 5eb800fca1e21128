package mongo

import (
	"context"
	"time"

	"github.com/VTGare/Taterboard/ctxzap"
	"github.com/VTGare/Taterboard/ledger"
	"github.com/VTGare/Taterboard/store"
	"github.com/diamondburned/arikawa/v3/discord"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterStore struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

func (cs *counterStore) SaveCounters(ctx context.Context, guildID discord.GuildID, l *ledger.Ledger) error {
	log := ctxzap.Extract(ctx)

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	counters := store.NewCounters(guildID, l)
	_, err := cs.col.ReplaceOne(ctx, bson.M{"guild_id": counters.GuildID}, counters, options.Replace().SetUpsert(true))
	if err != nil {
		log.With("guild_id", guildID, "error", err).
			Error("failed to replace counters")
		return handleError(err)
	}

	return nil
}

func (cs *counterStore) counters(ctx context.Context) (map[discord.GuildID]*store.Counters, error) {
	log := ctxzap.Extract(ctx)

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	cur, err := cs.col.Find(ctx, bson.M{})
	if err != nil {
		log.With("error", err).Error("failed to find counters")
		return nil, handleError(err)
	}
	defer cur.Close(ctx)

	res := make(map[discord.GuildID]*store.Counters)
	for cur.Next(ctx) {
		var counters store.Counters
		if err := cur.Decode(&counters); err != nil {
			log.With("error", err).Warn("failed to decode counters")
			continue
		}

		if id, ok := parseGuildID(counters.GuildID); ok {
			res[id] = &counters
		}
	}

	if err := cur.Err(); err != nil {
		return nil, handleError(err)
	}

	return res, nil
}
