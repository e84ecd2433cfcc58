package services

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/agrimarket/agrimarket_backend/config"
)

// sentTo returns the commands called name that targeted coll, in order.
func sentTo(mt *mtest.T, name, coll string) []bson.Raw {
	var out []bson.Raw
	for _, evt := range mt.GetAllStartedEvents() {
		if evt.CommandName != name {
			continue
		}
		if target, ok := evt.Command.Lookup(name).StringValueOK(); ok && target == coll {
			out = append(out, evt.Command)
		}
	}
	return out
}

// firstUpdate is the single statement of an update command.
func firstUpdate(cmd bson.Raw) bson.Raw {
	return cmd.Lookup("updates", "0").Document()
}

// inserted returns the documents of every insert sent to coll.
func inserted(mt *mtest.T, coll string) []bson.Raw {
	var docs []bson.Raw
	for _, cmd := range sentTo(mt, "insert", coll) {
		values, err := cmd.Lookup("documents").Array().Values()
		if err != nil {
			continue
		}
		for _, v := range values {
			docs = append(docs, v.Document())
		}
	}
	return docs
}

func number(t *testing.T, v bson.RawValue) float64 {
	t.Helper()
	switch v.Type {
	case bson.TypeInt32:
		return float64(v.Int32())
	case bson.TypeInt64:
		return float64(v.Int64())
	case bson.TypeDouble:
		return v.Double()
	}
	t.Fatalf("%s is not a number", v)
	return 0
}

type stockMove struct {
	product primitive.ObjectID
	qty     float64
}

// stockMoves lists the stock increments sent to products; reservations are
// negative, releases positive.
func stockMoves(t *testing.T, mt *mtest.T) []stockMove {
	var moves []stockMove
	for _, cmd := range sentTo(mt, "update", config.ProductsCollection) {
		stmt := firstUpdate(cmd)
		inc, err := stmt.LookupErr("u", "$inc", "stock")
		if err != nil {
			continue
		}
		moves = append(moves, stockMove{product: stmt.Lookup("q", "_id").ObjectID(), qty: number(t, inc)})
	}
	return moves
}

func findAndModifyReply(doc interface{}) bson.D {
	return bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: doc}}
}

func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}
