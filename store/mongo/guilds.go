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

type guildStore struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

func (gs *guildStore) SaveConfig(ctx context.Context, guildID discord.GuildID, cfg *ledger.Config) error {
	log := ctxzap.Extract(ctx)

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	guild := store.NewGuild(guildID, cfg)
	_, err := gs.col.ReplaceOne(ctx, bson.M{"guild_id": guild.ID}, guild, options.Replace().SetUpsert(true))
	if err != nil {
		log.With("guild_id", guildID, "error", err).
			Error("failed to replace a config")
		return handleError(err)
	}

	return nil
}

func (gs *guildStore) guilds(ctx context.Context) (map[discord.GuildID]*store.Guild, error) {
	log := ctxzap.Extract(ctx)

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	cur, err := gs.col.Find(ctx, bson.M{})
	if err != nil {
		log.With("error", err).Error("failed to find configs")
		return nil, handleError(err)
	}
	defer cur.Close(ctx)

	res := make(map[discord.GuildID]*store.Guild)
	for cur.Next(ctx) {
		var guild store.Guild
		if err := cur.Decode(&guild); err != nil {
			log.With("error", err).Warn("failed to decode a config")
			continue
		}

		if id, ok := parseGuildID(guild.ID); ok {
			res[id] = &guild
		}
	}

	if err := cur.Err(); err != nil {
		return nil, handleError(err)
	}

	return res, nil
}

func handleError(err error) error {
	switch err {
	case mongo.ErrClientDisconnected:
		return store.ErrUnavailable
	default:
		return store.ErrInternal
	}
}
